// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chatui is the full-screen interactive chat for the intern
// command. It is a bubbletea model: a scrollable transcript above a
// single-line input, with a spinner while a reply is in flight.
//
// The model talks to a [chat.Conversation], so the same UI works over
// the service socket and against an in-process stack. Replies are
// drawn with [termrender] and re-wrapped when the window is resized.
package chatui
