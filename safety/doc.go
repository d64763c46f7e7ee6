// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package safety decides whether a proposed shell command may be sent
// to the remote host.
//
// The check is a case-insensitive substring match against a fixed
// deny-list covering recursive forced deletion, raw device writes,
// filesystem formatting, world-writable root permissions, fork bombs,
// outbound transfer tools and raw socket tools. The first matching
// pattern decides and is reported in the verdict.
//
// This is a coarse screen in front of a remote account that should
// itself be unprivileged. Substring matching blocks harmless commands
// that happen to contain a pattern ("grep curl notes.txt") and misses
// anything obfuscated ("r''m -rf", base64 piped to sh, variables). It
// is not a sandbox and nothing downstream should rely on it as one.
package safety
