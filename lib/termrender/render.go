// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termrender

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/health"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// Renderer styles output for one terminal.
type Renderer struct {
	lip     *lipgloss.Renderer
	profile termenv.Profile
	theme   Theme
	width   int
}

// Options configure a Renderer. The zero value detects the color
// profile from the writer and environment.
type Options struct {
	// Profile forces a color profile. Nil detects.
	Profile *termenv.Profile

	// Width wraps paragraphs. Zero uses DefaultWidth.
	Width int

	// Theme overrides DefaultTheme when non-nil.
	Theme *Theme
}

// New returns a Renderer for output written to w.
func New(w io.Writer, options Options) *Renderer {
	r := &Renderer{theme: DefaultTheme, width: options.Width}
	if options.Theme != nil {
		r.theme = *options.Theme
	}
	if r.width <= 0 {
		r.width = DefaultWidth
	}
	if options.Profile != nil {
		r.profile = *options.Profile
		r.lip = lipgloss.NewRenderer(w, termenv.WithProfile(r.profile))
		// lipgloss re-detects unless the profile is set explicitly.
		r.lip.SetColorProfile(r.profile)
	} else {
		r.lip = lipgloss.NewRenderer(w)
		r.profile = r.lip.ColorProfile()
	}
	return r
}

func (r *Renderer) style() lipgloss.Style { return r.lip.NewStyle() }

// plain reports whether styling is disabled.
func (r *Renderer) plain() bool { return r.profile == termenv.Ascii }

// highlight colors code in language. Unknown languages and plain
// output fall back to faint text.
func (r *Renderer) highlight(code, language string) string {
	faint := r.style().Foreground(r.theme.FaintText)
	if language == "" || r.plain() {
		return faint.Render(code)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err != nil {
		return faint.Render(code)
	}
	return buffer.String()
}

// Command renders "$ command" with shell highlighting.
func (r *Renderer) Command(command string) string {
	prompt := r.style().Foreground(r.theme.Prompt).Bold(true).Render("$")
	return prompt + " " + strings.TrimRight(r.highlight(command, "bash"), "\n")
}

// Result renders an executed command followed by its output, or by its
// error in the failure color.
func (r *Renderer) Result(result bridge.Result) string {
	var b strings.Builder
	b.WriteString(r.Command(result.Command))
	b.WriteString("\n")
	if result.Success {
		b.WriteString(strings.TrimRight(result.Output, "\n"))
		return b.String()
	}

	failure := r.style().Foreground(r.theme.Failure)
	label := "error"
	if result.Failure != "" {
		label = string(result.Failure)
	}
	b.WriteString(failure.Bold(true).Render(label+":") + " " + failure.Render(result.Error))
	if output := strings.TrimRight(result.Output, "\n"); output != "" && output != bridge.NoOutputPlaceholder {
		b.WriteString("\n")
		b.WriteString(output)
	}
	return b.String()
}

// Health renders a snapshot as aligned label/value lines.
func (r *Renderer) Health(snapshot health.Snapshot) string {
	status := snapshot.Status()
	label := r.style().Foreground(r.theme.FaintText).Width(10)
	statusStyle := r.style().Foreground(r.theme.StatusColor(status)).Bold(true)

	rows := []struct{ name, value string }{
		{"status", statusStyle.Render(string(status))},
		{"host", fmt.Sprintf("%s (%s, %s)", snapshot.Hostname, snapshot.Platform, snapshot.Source)},
		{"cpu", fmt.Sprintf("%.1f%%", snapshot.CPU)},
		{"memory", fmt.Sprintf("%.2f / %.2f GiB (%d%%)", snapshot.Memory.Used, snapshot.Memory.Total, snapshot.Memory.Percentage)},
		{"uptime", health.FormatUptime(snapshot.Uptime)},
	}
	lines := make([]string, len(rows))
	for index, row := range rows {
		lines[index] = label.Render(row.name) + row.value
	}
	return strings.Join(lines, "\n")
}

// Emotion renders the assistant's mood tag.
func (r *Renderer) Emotion(emotion string) string {
	return r.style().Foreground(r.theme.FaintText).Italic(true).Render("(" + emotion + ")")
}

// Reply renders a chat reply: each executed command with its output,
// then the message, then the emotion and meme link if present.
func (r *Renderer) Reply(reply *chat.Reply) string {
	var blocks []string
	for _, result := range reply.Commands {
		blocks = append(blocks, r.Result(result))
	}
	blocks = append(blocks, r.Markdown(reply.Message))
	if reply.Emotion != "" {
		line := r.Emotion(reply.Emotion)
		if reply.Meme != "" {
			line += " " + reply.Meme
		}
		blocks = append(blocks, line)
	}
	return strings.Join(blocks, "\n\n")
}
