// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm is a small client for chat-completion language models.
//
// [Provider] is the abstraction consumers depend on. [OpenAI]
// implements it for any service that speaks the OpenAI Chat
// Completions wire format (OpenAI, OpenRouter, vLLM, Ollama,
// llama.cpp). Requests carry a system instruction and an ordered list
// of user and assistant text messages; responses carry the first
// choice's text.
//
// Non-200 responses become [*ProviderError], which keeps the HTTP
// status and the provider's error type for callers that want to retry
// on rate limiting.
package llm
