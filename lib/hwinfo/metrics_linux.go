// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hwinfo

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// CPUReading holds cumulative jiffies from the aggregate "cpu" line of
// /proc/stat:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// busy = user + nice + system + irq + softirq + steal
// idle = idle + iowait
//
// guest time is already counted in user and nice.
type CPUReading struct {
	Busy uint64
	Idle uint64
}

// ReadCPUStats samples /proc/stat. It returns nil when the file is
// missing or malformed.
func ReadCPUStats() *CPUReading {
	return readCPUStatsFrom("/proc/stat")
}

func readCPUStatsFrom(path string) *CPUReading {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return nil
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 9 || fields[0] != "cpu" {
		return nil
	}

	values := make([]uint64, 8)
	for i := range values {
		parsed, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return nil
		}
		values[i] = parsed
	}
	return &CPUReading{
		Busy: values[0] + values[1] + values[2] + values[5] + values[6] + values[7],
		Idle: values[3] + values[4],
	}
}

// Memory is physical RAM in bytes.
type Memory struct {
	TotalBytes uint64
	UsedBytes  uint64
}

// ReadMemory reports total and used RAM. Used is total minus free,
// buffers and shared-free memory are not subtracted, matching what
// os.freemem based dashboards show.
func ReadMemory() (Memory, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return Memory{}, false
	}
	unit := uint64(info.Unit)
	total := uint64(info.Totalram) * unit
	free := uint64(info.Freeram) * unit
	if total < free {
		return Memory{}, false
	}
	return Memory{TotalBytes: total, UsedBytes: total - free}, true
}

// Uptime returns time since boot.
func Uptime() (time.Duration, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	return time.Duration(info.Uptime) * time.Second, true
}
