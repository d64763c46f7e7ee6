// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package termrender draws command results, chat replies, and health
// snapshots for a terminal.
//
// Chat replies are markdown. They are parsed with goldmark and walked
// directly so paragraphs can be word-wrapped to the terminal width
// after inline styling is applied. Fenced code and executed commands
// are highlighted with chroma. When the output profile is
// [termenv.Ascii] (pipes, dumb terminals, tests) every style collapses
// to plain text, highlighting included.
package termrender
