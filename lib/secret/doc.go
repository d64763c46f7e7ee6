// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds credentials in memory the garbage collector
// never sees.
//
// A [Buffer] is an anonymous mmap region locked into RAM and excluded
// from core dumps. Close zeroes and unmaps it. The remote-shell
// password lives in a Buffer from the moment it is read from disk or
// decrypted until the process exits; the only heap copies are the
// short-lived strings handed to the SSH client at authentication time.
package secret
