// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Source records where a Snapshot came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Status is a coarse rating derived from CPU and memory load.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// Thresholds for Status, in percent. A reading strictly above a
// threshold reaches that status.
const (
	WarningPercent  = 70
	CriticalPercent = 90
)

// Memory is expressed in GiB.
type Memory struct {
	Total      float64 `json:"total"`
	Used       float64 `json:"used"`
	Percentage int     `json:"percentage"`
}

// Snapshot is one health reading.
type Snapshot struct {
	CPU         float64   `json:"cpu"`
	Memory      Memory    `json:"memory"`
	Uptime      int64     `json:"uptime"`
	Platform    string    `json:"platform"`
	Hostname    string    `json:"hostname"`
	Source      Source    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`
}

// Status rates the worse of CPU and memory load.
func (s Snapshot) Status() Status {
	load := math.Max(s.CPU, float64(s.Memory.Percentage))
	switch {
	case load > CriticalPercent:
		return StatusCritical
	case load > WarningPercent:
		return StatusWarning
	}
	return StatusHealthy
}

const bytesPerGiB = 1 << 30

func memoryFromBytes(total, used uint64) Memory {
	memory := Memory{
		Total: round(float64(total)/bytesPerGiB, 2),
		Used:  round(float64(used)/bytesPerGiB, 2),
	}
	if total > 0 {
		memory.Percentage = int(math.Round(float64(used) / float64(total) * 100))
	}
	return memory
}

func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}

// FormatUptime renders seconds as "3d 4h 5m", omitting zero units.
// Anything under a minute is "< 1m".
func FormatUptime(seconds int64) string {
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		return "< 1m"
	}
	return strings.Join(parts, " ")
}
