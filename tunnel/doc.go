// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tunnel runs the access-gateway client (cloudflared by
// default) as a subprocess and presents its stdin and stdout as a
// single [net.Conn].
//
// The gateway client speaks the remote SSH server's byte stream on its
// standard streams:
//
//	intern ──write──▶ stdin  ┐
//	                         ├─ cloudflared access ssh --hostname H ─▶ gateway ─▶ sshd
//	intern ◀──read─── stdout ┘
//
// [Conn] maps writes to the child's stdin and reads to its stdout. The
// child's exit surfaces as io.EOF on Read once its stdout is closed,
// and as the closing of [Tunnel.Done]. CloseWrite half-closes stdin so
// the child sees end of input while its output can still be drained.
//
// The child runs in its own process group. [Tunnel.Kill] signals the
// whole group and waits for the child to be reaped, so helpers the
// gateway client forks do not outlive the tunnel.
package tunnel
