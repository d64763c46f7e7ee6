// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds helpers shared by the module's tests.
//
// [RequireReceive] and [RequireClosed] are the only place tests wait on
// the wall clock. Everything else that involves time runs on a
// [clock.FakeClock]; these helpers exist so a broken test fails with a
// message instead of hanging the run.
//
// [SocketDir] returns a short directory under /tmp for unix sockets,
// whose paths are limited to 108 bytes.
package testutil
