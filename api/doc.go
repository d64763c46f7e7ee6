// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the bridge, the chat orchestrator and the health
// collector to clients.
//
// Over HTTP (JSON), for the web console:
//
//	POST /api/exec    {"command": "..."}          -> bridge.Result
//	POST /api/chat    {"messages": [{role, content}, ...]}
//	                  -> {message, html, commands, memes, turns}
//	GET  /api/health                              -> health snapshot
//	GET  /api/gif?url=...                         -> proxied reaction media
//
// Over the daemon's Unix socket (CBOR), for the CLI, the actions
// "exec", "chat" and "health" take and return the same shapes.
//
// Neither surface authenticates callers. Bind the HTTP listener to
// loopback or put it behind an authenticating proxy.
package api
