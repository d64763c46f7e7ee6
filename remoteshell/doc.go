// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package remoteshell runs single commands on a remote host over an
// SSH connection carried by an arbitrary [net.Conn].
//
// The bridge hands [Open] the tunnel's connection rather than a TCP
// socket; the SSH handshake, password authentication and exec request
// all travel through the tunnel subprocess. A [Session] has no timeout
// of its own. Callers bound it externally and call [Session.Close] to
// abandon it, which closes the underlying connection and unblocks any
// [Session.Exec] in flight.
package remoteshell
