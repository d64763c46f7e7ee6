// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/lib/clock"
	"github.com/sleepyleo/intern/lib/testutil"
	"github.com/sleepyleo/intern/safety"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeRunner struct {
	configured bool
	result     bridge.Result
	calls      atomic.Int32
	release    chan struct{}
	commands   chan string
}

func (r *fakeRunner) Configured() bool { return r.configured }

func (r *fakeRunner) Run(command string) bridge.Result {
	r.calls.Add(1)
	if r.commands != nil {
		r.commands <- command
	}
	if r.release != nil {
		<-r.release
	}
	return r.result
}

const sampleLine = "cpu=12.34 mem_total=8589934592 mem_used=2147483648 uptime=93784.12 platform=linux hostname=vm-1\n"

func TestCollectParsesRemoteLine(t *testing.T) {
	runner := &fakeRunner{configured: true, result: bridge.Result{Success: true, Output: sampleLine}}
	collector := New(Config{Runner: runner, Clock: clock.Fake(epoch)})

	snapshot := collector.Collect(context.Background())

	want := Snapshot{
		CPU:         12.3,
		Memory:      Memory{Total: 8, Used: 2, Percentage: 25},
		Uptime:      93784,
		Platform:    "linux",
		Hostname:    "vm-1",
		Source:      SourceRemote,
		CollectedAt: epoch,
	}
	if snapshot != want {
		t.Errorf("Collect = %+v, want %+v", snapshot, want)
	}
}

func TestRemoteCommandPassesSafetyFilter(t *testing.T) {
	if verdict := safety.Evaluate(RemoteCommand); !verdict.Allowed {
		t.Fatalf("RemoteCommand blocked by %q", verdict.Pattern)
	}
}

func TestCollectFallsBackLocally(t *testing.T) {
	tests := []struct {
		name      string
		runner    *fakeRunner
		wantCalls int32
	}{
		{"no runner", nil, 0},
		{"remote not configured", &fakeRunner{configured: false}, 0},
		{"remote failure", &fakeRunner{configured: true, result: bridge.Result{Failure: bridge.FailureTimedOut, Error: "Command timed out after 30s"}}, 1},
		{"unparseable output", &fakeRunner{configured: true, result: bridge.Result{Success: true, Output: bridge.NoOutputPlaceholder}}, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Config{Clock: clock.Fake(epoch)}
			if test.runner != nil {
				cfg.Runner = test.runner
			}
			snapshot := New(cfg).Collect(context.Background())

			if snapshot.Source != SourceLocal {
				t.Fatalf("Source = %q, want local", snapshot.Source)
			}
			if snapshot.Platform != runtime.GOOS {
				t.Errorf("Platform = %q, want %q", snapshot.Platform, runtime.GOOS)
			}
			if p := snapshot.Memory.Percentage; p < 0 || p > 100 {
				t.Errorf("Memory.Percentage = %d, want within [0, 100]", p)
			}
			if snapshot.CPU < 0 || snapshot.CPU > 100 {
				t.Errorf("CPU = %f, want within [0, 100]", snapshot.CPU)
			}
			if test.runner != nil && test.runner.calls.Load() != test.wantCalls {
				t.Errorf("runner called %d times, want %d", test.runner.calls.Load(), test.wantCalls)
			}
		})
	}
}

func TestCollectWaitsSampleIntervalBetweenCPUReadings(t *testing.T) {
	fake := clock.Fake(epoch)
	collector := New(Config{Clock: fake, SampleInterval: 500 * time.Millisecond})

	snapshots := make(chan Snapshot, 1)
	go func() { snapshots <- collector.Collect(context.Background()) }()

	fake.WaitForTimers(1)
	fake.Advance(500 * time.Millisecond)
	snapshot := testutil.RequireReceive(t, snapshots, 5*time.Second, "local collection")
	if snapshot.Source != SourceLocal {
		t.Errorf("Source = %q, want local", snapshot.Source)
	}
}

func TestCollectIgnoresCancelledLeader(t *testing.T) {
	fake := clock.Fake(epoch)
	collector := New(Config{Clock: fake, SampleInterval: 500 * time.Millisecond})

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	snapshots := make(chan Snapshot, 2)
	go func() { snapshots <- collector.Collect(cancelled) }()
	fake.WaitForTimers(1)
	go func() { snapshots <- collector.Collect(context.Background()) }()

	select {
	case snapshot := <-snapshots:
		t.Fatalf("collection cut short by the leader's cancellation: %+v", snapshot)
	case <-time.After(50 * time.Millisecond):
	}
	fake.Advance(500 * time.Millisecond)
	for range 2 {
		snapshot := testutil.RequireReceive(t, snapshots, 5*time.Second, "local collection")
		if snapshot.Source != SourceLocal || !snapshot.CollectedAt.Equal(epoch.Add(500*time.Millisecond)) {
			t.Errorf("snapshot = %+v, want a full local sample", snapshot)
		}
	}
}

func TestCollectCoalescesConcurrentCallers(t *testing.T) {
	runner := &fakeRunner{
		configured: true,
		result:     bridge.Result{Success: true, Output: sampleLine},
		release:    make(chan struct{}),
		commands:   make(chan string, 4),
	}
	collector := New(Config{Runner: runner, Clock: clock.Fake(epoch)})

	var wg sync.WaitGroup
	results := make(chan Snapshot, 3)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- collector.Collect(context.Background())
	}()
	command := testutil.RequireReceive(t, runner.commands, 5*time.Second, "remote command")
	if command != RemoteCommand {
		t.Errorf("runner received %q, want RemoteCommand", command)
	}

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- collector.Collect(context.Background())
		}()
	}
	// Followers must join the in-flight call before it is released.
	time.Sleep(50 * time.Millisecond)
	close(runner.release)
	wg.Wait()
	close(results)

	for snapshot := range results {
		if snapshot.Source != SourceRemote || snapshot.Hostname != "vm-1" {
			t.Errorf("follower got %+v", snapshot)
		}
	}
	if calls := runner.calls.Load(); calls != 1 {
		t.Errorf("runner called %d times, want 1", calls)
	}
}

func TestParseRemoteRejectsMalformedLines(t *testing.T) {
	for name, output := range map[string]string{
		"empty":           "",
		"no cpu":          "mem_total=1 mem_used=1 uptime=1",
		"cpu not numeric": "cpu=abc mem_total=1 mem_used=1 uptime=1",
		"zero total":      "cpu=1 mem_total=0 mem_used=0 uptime=1",
		"missing uptime":  "cpu=1 mem_total=10 mem_used=1",
	} {
		t.Run(name, func(t *testing.T) {
			if snapshot, err := parseRemote(output); err == nil {
				t.Errorf("parseRemote(%q) = %+v, want error", output, snapshot)
			}
		})
	}
}

func TestParseRemoteUsesLastHealthLineAndClamps(t *testing.T) {
	output := "motd banner\ncpu=1 mem_total=10 mem_used=1 uptime=1 platform=x hostname=old\n" +
		"cpu=104 mem_total=100 mem_used=150 uptime=59.9 platform=linux hostname=new\n"
	snapshot, err := parseRemote(output)
	if err != nil {
		t.Fatalf("parseRemote: %v", err)
	}
	if snapshot.Hostname != "new" || snapshot.CPU != 100 || snapshot.Memory.Percentage != 100 || snapshot.Uptime != 59 {
		t.Errorf("parseRemote = %+v", snapshot)
	}
}
