// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package hwinfo

import "time"

// CPUReading holds cumulative busy and idle CPU time.
type CPUReading struct {
	Busy uint64
	Idle uint64
}

// ReadCPUStats is unsupported on this platform and returns nil.
func ReadCPUStats() *CPUReading { return nil }

// Memory is physical RAM in bytes.
type Memory struct {
	TotalBytes uint64
	UsedBytes  uint64
}

// ReadMemory is unsupported on this platform.
func ReadMemory() (Memory, bool) { return Memory{}, false }

// Uptime is unsupported on this platform.
func Uptime() (time.Duration, bool) { return 0, false }
