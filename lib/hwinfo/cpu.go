// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

// CPUPercent returns utilization between two samples in [0, 100]. It
// returns 0 when either sample is missing or no time passed between
// them.
func CPUPercent(previous, current *CPUReading) float64 {
	if previous == nil || current == nil {
		return 0
	}
	if current.Busy < previous.Busy || current.Idle < previous.Idle {
		return 0
	}
	busy := current.Busy - previous.Busy
	total := busy + current.Idle - previous.Idle
	if total == 0 {
		return 0
	}
	return float64(busy) / float64(total) * 100
}
