// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwinfo reads local host metrics for the health collector's
// fallback path.
//
//   - CPU utilization from two /proc/stat samples ([ReadCPUStats],
//     [CPUPercent])
//   - Physical memory totals and uptime from sysinfo(2) ([ReadMemory],
//     [Uptime])
//
// On platforms without /proc or sysinfo the readers report ok=false
// and the caller substitutes zeros.
package hwinfo
