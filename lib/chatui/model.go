// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/lib/termrender"
)

// chromeLines is the height below the transcript: status and input.
const chromeLines = 2

const userPrompt = "you> "

type entryKind int

const (
	entryUser entryKind = iota
	entryReply
	entryNotice
	entryError
)

// entry is one transcript item. Entries keep their source so the
// transcript can be re-wrapped on resize.
type entry struct {
	kind  entryKind
	text  string
	reply *chat.Reply
}

// replyMsg carries the outcome of one Send back to Update.
type replyMsg struct {
	reply *chat.Reply
	err   error
}

// Model is the bubbletea model for an interactive chat session.
type Model struct {
	ctx          context.Context
	conversation *chat.Conversation
	profile      termenv.Profile
	theme        termrender.Theme
	lip          *lipgloss.Renderer
	keys         KeyMap

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model

	entries []entry
	pending bool

	width  int
	height int
	ready  bool
}

// NewModel returns a Model that sends through conversation. ctx bounds
// every request; profile selects the output colors.
func NewModel(ctx context.Context, conversation *chat.Conversation, profile termenv.Profile) Model {
	input := textinput.New()
	input.Prompt = userPrompt
	input.Placeholder = "Ask the intern something"
	input.Focus()

	indicator := spinner.New()
	indicator.Spinner = spinner.Dot

	lip := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(profile))
	lip.SetColorProfile(profile)

	return Model{
		ctx:          ctx,
		conversation: conversation,
		profile:      profile,
		theme:        termrender.DefaultTheme,
		lip:          lip,
		keys:         DefaultKeyMap,
		input:        input,
		spinner:      indicator,
		entries: []entry{{
			kind: entryNotice,
			text: "Connected. /reset forgets the conversation, /exit leaves.",
		}},
	}
}

// Run drives a Model on the terminal until the user leaves or ctx is
// cancelled.
func Run(ctx context.Context, conversation *chat.Conversation, profile termenv.Profile) error {
	program := tea.NewProgram(NewModel(ctx, conversation, profile),
		tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Init implements tea.Model.
func (model Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.layout()
		model.refresh()
		return model, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.PageUp):
			model.transcript.SetYOffset(model.transcript.YOffset - model.transcript.Height)
			return model, nil
		case key.Matches(message, model.keys.PageDown):
			model.transcript.SetYOffset(model.transcript.YOffset + model.transcript.Height)
			return model, nil
		case key.Matches(message, model.keys.Send):
			return model.submit()
		}

	case replyMsg:
		model.pending = false
		if message.err != nil {
			model.entries = append(model.entries, entry{kind: entryError, text: message.err.Error()})
		} else {
			model.entries = append(model.entries, entry{kind: entryReply, reply: message.reply})
		}
		model.refresh()
		return model, nil

	case spinner.TickMsg:
		if !model.pending {
			return model, nil
		}
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(message)
		return model, command
	}

	var command tea.Cmd
	model.input, command = model.input.Update(message)
	return model, command
}

// submit handles Enter: session commands run locally, anything else is
// sent unless a reply is still outstanding.
func (model Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(model.input.Value())
	if text == "" || model.pending {
		return model, nil
	}
	model.input.Reset()

	switch text {
	case "/exit", "/quit":
		return model, tea.Quit
	case "/reset":
		model.conversation.Reset()
		model.entries = []entry{{kind: entryNotice, text: "Conversation cleared."}}
		model.refresh()
		return model, nil
	}

	model.entries = append(model.entries, entry{kind: entryUser, text: text})
	model.pending = true
	model.refresh()
	return model, tea.Batch(model.send(text), model.spinner.Tick)
}

func (model Model) send(text string) tea.Cmd {
	ctx, conversation := model.ctx, model.conversation
	return func() tea.Msg {
		reply, err := conversation.Send(ctx, text)
		return replyMsg{reply: reply, err: err}
	}
}

func (model *Model) layout() {
	model.transcript.Width = model.width
	model.transcript.Height = max(model.height-chromeLines, 1)
	model.input.Width = max(model.width-len(userPrompt)-1, 1)
}

// refresh re-renders every entry at the current width and scrolls to
// the newest one.
func (model *Model) refresh() {
	model.transcript.SetContent(model.renderTranscript())
	model.transcript.GotoBottom()
}

func (model Model) renderTranscript() string {
	renderer := termrender.New(io.Discard, termrender.Options{
		Profile: &model.profile,
		Width:   model.width,
		Theme:   &model.theme,
	})
	prompt := model.lip.NewStyle().Foreground(model.theme.Prompt).Bold(true)
	faint := model.lip.NewStyle().Foreground(model.theme.FaintText)
	failure := model.lip.NewStyle().Foreground(model.theme.Failure)

	blocks := make([]string, 0, len(model.entries))
	for _, item := range model.entries {
		var block string
		switch item.kind {
		case entryUser:
			block = prompt.Render(userPrompt) + item.text
		case entryReply:
			block = renderer.Reply(item.reply)
		case entryNotice:
			block = faint.Render(item.text)
		case entryError:
			block = failure.Render("error: " + item.text)
		}
		if model.width > 0 && item.kind != entryReply {
			block = ansi.Wrap(block, model.width, "")
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Starting..."
	}
	status := model.lip.NewStyle().Foreground(model.theme.FaintText).Render(model.keys.helpLine())
	if model.pending {
		status = model.spinner.View() + " thinking"
	}
	return model.transcript.View() + "\n" + status + "\n" + model.input.View()
}
