// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Request is a single completion request.
type Request struct {
	// Model overrides the provider's default model when set.
	Model string

	// System is sent ahead of Messages as the system instruction.
	System string

	Messages []Message

	// MaxTokens and Temperature override the provider defaults when
	// non-zero and non-nil.
	MaxTokens   int
	Temperature *float64
}

// StopReason explains why the model stopped generating.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonMaxTokens StopReason = "max_tokens"
)

// Usage reports token accounting when the provider supplies it.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's reply.
type Response struct {
	Model      string
	Text       string
	StopReason StopReason
	Usage      Usage
}
