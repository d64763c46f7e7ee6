// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes BLAKE3 digests of executables.
//
// The tunnel binary is an external program the bridge hands the SSH
// byte stream to. When tunnel.digest is configured, the binary found
// on PATH is hashed with [HashFile] and compared to the pinned value
// before every launch, so a swapped binary is refused rather than
// trusted with the session.
package binhash
