// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/lib/llm"
	"github.com/sleepyleo/intern/reaction"
)

// FallbackReply stands in for an empty model reply.
const FallbackReply = "I'm having trouble thinking right now..."

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrInvalidRole  = errors.New(`turn role must be "user" or "assistant"`)
)

// Turn is one entry of a transcript.
type Turn struct {
	Role    llm.Role `json:"role"`
	Content string   `json:"content"`
}

// ValidateTurns checks that every turn has a known role.
func ValidateTurns(turns []Turn) error {
	for index, turn := range turns {
		if turn.Role != llm.RoleUser && turn.Role != llm.RoleAssistant {
			return fmt.Errorf("turn %d: %w", index, ErrInvalidRole)
		}
	}
	return nil
}

// Runner executes one command on the remote host. *bridge.Bridge
// implements it.
type Runner interface {
	Run(command string) bridge.Result
}

// Reply is the outcome of one Respond call.
type Reply struct {
	// Message is the model's reply with every tag removed.
	Message string `json:"message"`

	// HTML is Message rendered from Markdown.
	HTML string `json:"html"`

	// Commands holds one result per command tag, in reply order.
	Commands []bridge.Result `json:"commands"`

	Emotion string `json:"emotion,omitempty"`

	// Meme is a reaction media URL for Emotion, if the catalog has one.
	Meme string `json:"memes,omitempty"`

	// Turns is the transcript to send with the next message: the prior
	// turns, the user's message and the folded assistant turn.
	Turns []Turn `json:"turns"`
}

// Config assembles an Orchestrator.
type Config struct {
	Model  llm.Provider
	Runner Runner

	// Reactions picks media for emotions. Nil disables reactions.
	Reactions *reaction.Bag

	Logger *slog.Logger
}

// Orchestrator answers user messages. It holds no per-conversation
// state and is safe for concurrent use.
type Orchestrator struct {
	model     llm.Provider
	runner    Runner
	reactions *reaction.Bag
	logger    *slog.Logger
	markdown  goldmark.Markdown
}

// New returns an Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		model:     cfg.Model,
		runner:    cfg.Runner,
		reactions: cfg.Reactions,
		logger:    logger,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Respond sends userText, after the prior turns, to the model and runs
// every command in its reply. Commands run sequentially and a failed
// command never stops the ones after it. An error is returned only
// when the model cannot be reached.
func (o *Orchestrator) Respond(ctx context.Context, userText string, prior []Turn) (*Reply, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyMessage
	}
	if err := ValidateTurns(prior); err != nil {
		return nil, err
	}
	turns := append(slices.Clone(prior), Turn{Role: llm.RoleUser, Content: userText})

	response, err := o.model.Complete(ctx, llm.Request{
		System:   SystemPrompt,
		Messages: toMessages(turns),
	})
	if err != nil {
		return nil, fmt.Errorf("asking model: %w", err)
	}
	raw := response.Text
	if strings.TrimSpace(raw) == "" {
		raw = FallbackReply
	}

	reply := &Reply{
		Message:  stripTags(raw),
		Commands: make([]bridge.Result, 0),
		Emotion:  extractEmotion(raw),
	}
	if reply.Emotion != "" && o.reactions != nil {
		reply.Meme, _ = o.reactions.Next(reply.Emotion)
	}

	for _, command := range extractCommands(raw) {
		result := o.runner.Run(command)
		o.logger.Info("chat command",
			"invocation_id", result.InvocationID,
			"command", command,
			"success", result.Success,
			"failure", result.Failure)
		reply.Commands = append(reply.Commands, result)
	}

	var html bytes.Buffer
	if err := o.markdown.Convert([]byte(reply.Message), &html); err != nil {
		o.logger.Warn("rendering reply markdown", "error", err)
	}
	reply.HTML = html.String()

	reply.Turns = append(turns, Turn{
		Role:    llm.RoleAssistant,
		Content: foldResults(reply.Message, reply.Commands),
	})
	return reply, nil
}

// foldResults appends one block per command result to message, so the
// transcript remembers what the commands printed.
func foldResults(message string, results []bridge.Result) string {
	var parts []string
	if message != "" {
		parts = append(parts, message)
	}
	for _, result := range results {
		if result.Success {
			parts = append(parts, fmt.Sprintf("[Command executed: %s]\nOutput:\n%s",
				result.Command, ansi.Strip(result.Output)))
		} else {
			parts = append(parts, fmt.Sprintf("[Command failed: %s]\nError: %s",
				result.Command, ansi.Strip(result.Error)))
		}
	}
	return strings.Join(parts, "\n\n")
}

func toMessages(turns []Turn) []llm.Message {
	messages := make([]llm.Message, len(turns))
	for index, turn := range turns {
		messages[index] = llm.Message{Role: turn.Role, Content: turn.Content}
	}
	return messages
}
