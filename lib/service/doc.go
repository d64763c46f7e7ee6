// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the listeners the intern daemon serves on.
//
//   - [HTTPServer] serves an http.Handler on TCP with graceful
//     shutdown. The web console and health widget use it.
//   - [SocketServer] serves a CBOR request-response protocol on a Unix
//     socket, one request per connection, dispatched by the request's
//     "action" field. The local CLI uses it.
//   - [Client] is the CLI side of the socket protocol.
//
// Both servers follow the same lifecycle: Serve(ctx) binds, closes
// Ready, and blocks until ctx is cancelled and in-flight requests
// drain.
//
// The socket is created with mode 0600. Whoever can open it can run
// commands on the remote host, so it must live in a directory only the
// operator can reach.
package service
