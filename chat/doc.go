// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat turns a conversation with the language model into
// commands on the remote host.
//
// The model is told to wrap shell commands in <command>...</command>
// and its mood in <emotion>...</emotion>. [Orchestrator.Respond] asks
// the model for a reply, runs every command in the reply one at a time
// and in order through the bridge, and returns the reply with its tags
// stripped, the command results, and a reaction picked for the
// emotion.
//
// The assistant turn appended to the transcript carries the command
// outcomes as bracketed blocks:
//
//	[Command executed: uptime]
//	Output:
//	 12:00:01 up 3 days, ...
//
// so that later questions about earlier output can be answered without
// running the command again. Tag extraction is deliberately shallow:
// an unterminated tag matches nothing.
package chat
