// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the intern binary:
// reporting the error returned by run() to stderr, where the
// structured logger may not exist yet, and choosing the exit code.
package process
