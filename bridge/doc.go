// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge executes one shell command on the remote host and
// always produces exactly one [Result].
//
// A call to [Bridge.Run] moves through these states:
//
//	Idle → Filtering → Connecting → Authenticating → Executing → Finalized
//
// Filtering consults the safety filter and may finalize immediately
// without starting anything. From Connecting onward a single timer
// bounds the whole invocation, and four sources compete to finalize
// it:
//
//   - the command's exit status arrives
//   - the SSH layer fails (handshake, authentication, channel)
//   - the tunnel subprocess exits
//   - the timer fires
//
// Each source calls the same finalize step, guarded by a one-shot
// latch. The first caller records its result, closes the SSH session
// and kills the tunnel; later callers do nothing. Run returns only
// after teardown has finished and every goroutine it started has
// exited, so no subprocess or connection outlives the call.
//
// Failures never escape as Go errors. Every outcome, including
// policy denials and missing configuration, is a Result with Success
// false and a [Failure] kind.
package bridge
