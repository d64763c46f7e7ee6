// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package health reports CPU, memory and uptime for the remote host.
//
// When the bridge is configured, [Collector.Collect] sends
// [RemoteCommand] through it. The command prints one line of
// key=value pairs:
//
//	cpu=12 mem_total=8339456000 mem_used=2147483648 uptime=93784.12 platform=linux hostname=vm-1
//
// Byte counts become GiB rounded to two decimals and memory percentage
// is rounded to a whole number. Any failure on the remote path, or a
// bridge with no remote configured, falls back to measuring the local
// machine through lib/hwinfo. Collect never fails; the Source field
// records which path produced the snapshot.
//
// Concurrent calls share one collection.
package health
