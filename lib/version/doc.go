// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build information for the intern binary.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//   - [GitCommit]: short git SHA of the build
//   - [GitDirty]: "true" if there were uncommitted changes
//   - [BuildTime]: UTC timestamp of the build
//   - [Version]: semantic version string, set manually for releases
//
// They default to "unknown" / "0.1.0-dev" in development builds and
// test runs.
//
// [SelfDigest] hashes the running executable with BLAKE3, the same
// digest format accepted by tunnel.digest, so operators can pin one
// build of intern the way they pin the tunnel binary.
package version
