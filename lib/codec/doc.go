// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration for the daemon's Unix
// socket protocol.
//
// The intern speaks two formats with a clear boundary:
//
//   - JSON for the HTTP API consumed by the web console, and for
//     --json CLI output.
//   - CBOR for the local socket between the CLI and the daemon.
//
// Result and snapshot types carry `json` tags only. fxamacker/cbor
// falls back to `json` tags when `cbor` tags are absent, so one tag
// names the field in both formats. Types that never leave the socket
// protocol use `cbor` tags. Never put both on the same field.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2) and
// writes times as RFC 3339 text.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
package codec
