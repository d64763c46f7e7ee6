// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termrender

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/health"
)

func plainRenderer(width int) *Renderer {
	profile := termenv.Ascii
	return New(io.Discard, Options{Profile: &profile, Width: width})
}

func colorRenderer() *Renderer {
	profile := termenv.ANSI256
	return New(io.Discard, Options{Profile: &profile})
}

func TestMarkdownPlain(t *testing.T) {
	renderer := plainRenderer(40)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "  \n", ""},
		{"emphasis collapses", "Found **3** containers and `nginx`.", "Found 3 containers and nginx."},
		{"soft breaks reflow", "one\ntwo", "one two"},
		{"tight list", "- a\n- b", "- a\n- b"},
		{"ordered list", "3. x\n4. y", "3. x\n4. y"},
		{"heading then paragraph", "# Title\n\nbody", "Title\n\nbody"},
		{"link destination", "[docs](https://example.com)", "docs (https://example.com)"},
		{"fenced code indented", "```sh\nls -la\n```", "  ls -la"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := renderer.Markdown(test.input); got != test.want {
				t.Errorf("Markdown(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestMarkdownWrapsToWidth(t *testing.T) {
	renderer := plainRenderer(20)
	got := renderer.Markdown(strings.Repeat("word ", 12))
	for _, line := range strings.Split(got, "\n") {
		if ansi.StringWidth(line) > 20 {
			t.Errorf("line %q is wider than 20 columns", line)
		}
	}
	if strings.Count(got, "\n") < 2 {
		t.Errorf("expected wrapped output, got %q", got)
	}
}

func TestMarkdownColorKeepsText(t *testing.T) {
	got := colorRenderer().Markdown("Use **docker ps**:\n\n```bash\ndocker ps -a\n```")
	if got == ansi.Strip(got) {
		t.Error("color profile produced no escape sequences")
	}
	stripped := ansi.Strip(got)
	for _, want := range []string{"Use docker ps:", "docker ps -a"} {
		if !strings.Contains(stripped, want) {
			t.Errorf("stripped output %q is missing %q", stripped, want)
		}
	}
}

func TestResult(t *testing.T) {
	renderer := plainRenderer(0)
	tests := []struct {
		name   string
		result bridge.Result
		want   string
	}{
		{
			name:   "success",
			result: bridge.Result{Command: "uptime", Success: true, Output: "up 3 days\n"},
			want:   "$ uptime\nup 3 days",
		},
		{
			name:   "denied",
			result: bridge.Result{Command: "rm -rf /", Failure: bridge.FailurePolicyDenied, Error: "Command blocked for safety reasons"},
			want:   "$ rm -rf /\npolicy_denied: Command blocked for safety reasons",
		},
		{
			name:   "non-zero exit keeps output",
			result: bridge.Result{Command: "false", Failure: bridge.FailureRemoteExit, Error: "exit status 1", Output: "partial\n"},
			want:   "$ false\nremote_exit: exit status 1\npartial",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := renderer.Result(test.result); got != test.want {
				t.Errorf("Result() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestReply(t *testing.T) {
	renderer := plainRenderer(0)
	reply := &chat.Reply{
		Message:  "Disk is **fine**.",
		Commands: []bridge.Result{{Command: "df -h", Success: true, Output: "/dev/sda1 40%\n"}},
		Emotion:  "happy",
		Meme:     "https://example.com/happy.gif",
	}
	want := "$ df -h\n/dev/sda1 40%\n\nDisk is fine.\n\n(happy) https://example.com/happy.gif"
	if got := renderer.Reply(reply); got != want {
		t.Errorf("Reply() = %q, want %q", got, want)
	}

	bare := renderer.Reply(&chat.Reply{Message: "ok"})
	if bare != "ok" {
		t.Errorf("Reply() without commands or emotion = %q, want %q", bare, "ok")
	}
}

func TestHealth(t *testing.T) {
	snapshot := health.Snapshot{
		CPU:         91.2,
		Memory:      health.Memory{Total: 8, Used: 2, Percentage: 25},
		Uptime:      93784,
		Platform:    "linux",
		Hostname:    "vm-1",
		Source:      health.SourceRemote,
		CollectedAt: time.Now(),
	}
	got := plainRenderer(0).Health(snapshot)
	for _, want := range []string{
		"status    critical",
		"host      vm-1 (linux, remote)",
		"cpu       91.2%",
		"memory    2.00 / 8.00 GiB (25%)",
		"uptime    1d 2h 3m",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Health() = %q, missing %q", got, want)
		}
	}
}

func TestStatusColor(t *testing.T) {
	theme := DefaultTheme
	if theme.StatusColor(health.StatusHealthy) != theme.Success ||
		theme.StatusColor(health.StatusWarning) != theme.Warning ||
		theme.StatusColor(health.StatusCritical) != theme.Failure ||
		theme.StatusColor("unknown") != theme.FaintText {
		t.Error("StatusColor mapping is wrong")
	}
}
