// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/lib/clock"
	"github.com/sleepyleo/intern/lib/hwinfo"
)

// RemoteCommand prints the remote host's figures on one line. It must
// stay clear of the safety deny-list.
const RemoteCommand = `printf 'cpu=%s mem_total=%s mem_used=%s uptime=%s platform=%s hostname=%s\n' ` +
	`"$(vmstat 1 2 | tail -1 | awk '{print 100-$15}')" ` +
	`"$(free -b | awk '/^Mem:/{print $2}')" ` +
	`"$(free -b | awk '/^Mem:/{print $3}')" ` +
	`"$(cut -d' ' -f1 /proc/uptime)" ` +
	`"$(uname -s | tr '[:upper:]' '[:lower:]')" ` +
	`"$(hostname)"`

// Runner executes a command on the remote host. *bridge.Bridge
// implements it.
type Runner interface {
	Run(command string) bridge.Result
	Configured() bool
}

// Config assembles a Collector.
type Config struct {
	// Runner reaches the remote host. Nil always measures locally.
	Runner Runner

	// SampleInterval separates the two local CPU samples. Zero takes
	// them back to back.
	SampleInterval time.Duration

	Clock  clock.Clock
	Logger *slog.Logger
}

// Collector produces health snapshots.
type Collector struct {
	runner         Runner
	sampleInterval time.Duration
	clock          clock.Clock
	logger         *slog.Logger
	group          singleflight.Group
}

// New returns a Collector.
func New(cfg Config) *Collector {
	c := &Collector{
		runner:         cfg.Runner,
		sampleInterval: cfg.SampleInterval,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Collect returns a snapshot of the remote host, or of the local
// machine when the remote is unavailable. Callers arriving while a
// collection is in flight receive its result, so the flight ignores
// the cancellation of whichever caller started it.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	flightCtx := context.WithoutCancel(ctx)
	value, _, _ := c.group.Do("collect", func() (any, error) {
		return c.collect(flightCtx), nil
	})
	return value.(Snapshot)
}

func (c *Collector) collect(ctx context.Context) Snapshot {
	if c.runner != nil && c.runner.Configured() {
		snapshot, err := c.collectRemote()
		if err == nil {
			return snapshot
		}
		c.logger.Warn("remote health collection failed, measuring locally", "error", err)
	}
	return c.collectLocal(ctx)
}

func (c *Collector) collectRemote() (Snapshot, error) {
	result := c.runner.Run(RemoteCommand)
	if !result.Success {
		return Snapshot{}, fmt.Errorf("%s: %s", result.Failure, result.Error)
	}
	snapshot, err := parseRemote(result.Output)
	if err != nil {
		return Snapshot{}, err
	}
	snapshot.CollectedAt = c.clock.Now()
	return snapshot, nil
}

// parseRemote reads the last line of output that carries a cpu= key.
func parseRemote(output string) (Snapshot, error) {
	var line string
	for _, candidate := range strings.Split(output, "\n") {
		if strings.Contains(candidate, "cpu=") {
			line = candidate
		}
	}
	if line == "" {
		return Snapshot{}, fmt.Errorf("no health line in output %q", output)
	}

	values := make(map[string]string)
	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, "=")
		if ok {
			values[key] = value
		}
	}

	cpu, err := strconv.ParseFloat(values["cpu"], 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing cpu: %w", err)
	}
	total, err := strconv.ParseUint(values["mem_total"], 10, 64)
	if err != nil || total == 0 {
		return Snapshot{}, fmt.Errorf("parsing mem_total %q", values["mem_total"])
	}
	used, err := strconv.ParseUint(values["mem_used"], 10, 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing mem_used: %w", err)
	}
	uptime, err := strconv.ParseFloat(values["uptime"], 64)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parsing uptime: %w", err)
	}

	return Snapshot{
		CPU:      round(clampPercent(cpu), 1),
		Memory:   memoryFromBytes(total, min(used, total)),
		Uptime:   int64(uptime),
		Platform: values["platform"],
		Hostname: values["hostname"],
		Source:   SourceRemote,
	}, nil
}

func (c *Collector) collectLocal(ctx context.Context) Snapshot {
	first := hwinfo.ReadCPUStats()
	select {
	case <-c.clock.After(c.sampleInterval):
	case <-ctx.Done():
	}
	second := hwinfo.ReadCPUStats()

	snapshot := Snapshot{
		CPU:         round(hwinfo.CPUPercent(first, second), 1),
		Platform:    runtime.GOOS,
		Source:      SourceLocal,
		CollectedAt: c.clock.Now(),
	}
	if memory, ok := hwinfo.ReadMemory(); ok {
		snapshot.Memory = memoryFromBytes(memory.TotalBytes, memory.UsedBytes)
	}
	if uptime, ok := hwinfo.Uptime(); ok {
		snapshot.Uptime = int64(uptime / time.Second)
	}
	if hostname, err := os.Hostname(); err == nil {
		snapshot.Hostname = hostname
	}
	return snapshot
}

func clampPercent(value float64) float64 {
	return max(0, min(100, value))
}
