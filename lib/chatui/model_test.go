// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/lib/llm"
)

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, userText string, prior []chat.Turn) (*chat.Reply, error) {
	if userText == "fail" {
		return nil, errors.New("model unavailable")
	}
	message := "echo: " + userText
	turns := append(append([]chat.Turn{}, prior...),
		chat.Turn{Role: llm.RoleUser, Content: userText},
		chat.Turn{Role: llm.RoleAssistant, Content: message})
	return &chat.Reply{Message: message, Turns: turns}, nil
}

func newTestModel(t *testing.T) (Model, *chat.Conversation) {
	t.Helper()
	conversation := chat.NewConversation(echoResponder{})
	model := NewModel(context.Background(), conversation, termenv.Ascii)
	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model), conversation
}

func typeText(model Model, text string) Model {
	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return updated.(Model)
}

func pressEnter(model Model) (Model, tea.Cmd) {
	updated, command := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), command
}

// collect runs command and any batched commands it expands to.
func collect(command tea.Cmd) []tea.Msg {
	if command == nil {
		return nil
	}
	message := command()
	batch, ok := message.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{message}
	}
	var messages []tea.Msg
	for _, inner := range batch {
		messages = append(messages, collect(inner)...)
	}
	return messages
}

// deliverReply runs command, feeds its replyMsg back into model and
// returns the result.
func deliverReply(t *testing.T, model Model, command tea.Cmd) Model {
	t.Helper()
	for _, message := range collect(command) {
		if reply, ok := message.(replyMsg); ok {
			updated, _ := model.Update(reply)
			return updated.(Model)
		}
	}
	t.Fatal("command produced no reply")
	return model
}

func isQuit(command tea.Cmd) bool {
	for _, message := range collect(command) {
		if _, ok := message.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}

func TestViewBeforeResize(t *testing.T) {
	model := NewModel(context.Background(), chat.NewConversation(echoResponder{}), termenv.Ascii)
	if view := model.View(); view != "Starting..." {
		t.Errorf("View() before the first resize = %q", view)
	}
}

func TestSendShowsReply(t *testing.T) {
	model, conversation := newTestModel(t)
	model = typeText(model, "hello")

	model, command := pressEnter(model)
	if !model.pending {
		t.Fatal("model should be pending after Enter")
	}
	if model.input.Value() != "" {
		t.Errorf("input not cleared after send: %q", model.input.Value())
	}
	if !strings.Contains(model.View(), "thinking") {
		t.Error("pending view should show the spinner status")
	}

	model = deliverReply(t, model, command)
	if model.pending {
		t.Error("model still pending after the reply arrived")
	}
	view := model.View()
	for _, want := range []string{"you> hello", "echo: hello"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if got := len(conversation.Turns()); got != 2 {
		t.Errorf("conversation has %d turns, want 2", got)
	}
}

func TestSendIgnoredWhilePending(t *testing.T) {
	model, _ := newTestModel(t)
	model, first := pressEnter(typeText(model, "one"))
	if first == nil {
		t.Fatal("first Enter should send")
	}

	model, second := pressEnter(typeText(model, "two"))
	if second != nil {
		t.Error("Enter while a reply is outstanding should do nothing")
	}
	if model.input.Value() != "two" {
		t.Errorf("input should keep the unsent text, got %q", model.input.Value())
	}
}

func TestEmptyInputDoesNothing(t *testing.T) {
	model, _ := newTestModel(t)
	model, command := pressEnter(typeText(model, "   "))
	if command != nil || model.pending {
		t.Error("blank input should not send")
	}
}

func TestFailedSendShowsError(t *testing.T) {
	model, conversation := newTestModel(t)
	model, command := pressEnter(typeText(model, "fail"))
	model = deliverReply(t, model, command)

	if !strings.Contains(model.View(), "error: model unavailable") {
		t.Errorf("view should show the error:\n%s", model.View())
	}
	if got := len(conversation.Turns()); got != 0 {
		t.Errorf("failed send changed the transcript to %d turns", got)
	}

	// The session continues after a failure.
	model, command = pressEnter(typeText(model, "again"))
	model = deliverReply(t, model, command)
	if !strings.Contains(model.View(), "echo: again") {
		t.Error("session should continue after an error")
	}
}

func TestResetClearsConversation(t *testing.T) {
	model, conversation := newTestModel(t)
	model, command := pressEnter(typeText(model, "hello"))
	model = deliverReply(t, model, command)

	model, command = pressEnter(typeText(model, "/reset"))
	if command != nil {
		t.Error("/reset should not send anything")
	}
	if got := len(conversation.Turns()); got != 0 {
		t.Errorf("conversation has %d turns after /reset", got)
	}
	view := model.View()
	if !strings.Contains(view, "Conversation cleared.") {
		t.Error("view should confirm the reset")
	}
	if strings.Contains(view, "echo: hello") {
		t.Error("view should drop the old transcript after /reset")
	}
}

func TestQuit(t *testing.T) {
	model, _ := newTestModel(t)

	_, command := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !isQuit(command) {
		t.Error("esc should quit")
	}

	_, command = pressEnter(typeText(model, "/exit"))
	if !isQuit(command) {
		t.Error("/exit should quit")
	}
}

func TestResizeRewrapsTranscript(t *testing.T) {
	model, _ := newTestModel(t)
	model, command := pressEnter(typeText(model, strings.Repeat("word ", 20)))
	model = deliverReply(t, model, command)

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 30, Height: 40})
	model = updated.(Model)
	if model.transcript.Width != 30 || model.transcript.Height != 40-chromeLines {
		t.Errorf("transcript is %dx%d, want 30x%d", model.transcript.Width, model.transcript.Height, 40-chromeLines)
	}
	for _, line := range strings.Split(model.renderTranscript(), "\n") {
		if len(line) > 30 {
			t.Errorf("line %q wider than the window", line)
		}
	}
}
