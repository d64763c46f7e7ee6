// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sshtest is an in-process SSH server for tests.
//
// It accepts password authentication for one user, serves "exec"
// requests on session channels by calling a [Handler], and reports
// the handler's status as the exit status. Tests connect to it through
// [Server.Pipe], which returns the client end of a net.Pipe whose
// server end is already being served.
package sshtest
