// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"slices"
	"sync"
)

// Responder answers one user message given the prior turns.
// *Orchestrator implements it; a remote client can too.
type Responder interface {
	Respond(ctx context.Context, userText string, prior []Turn) (*Reply, error)
}

// Conversation keeps the transcript of one interactive session. Send
// calls are serialized so turns stay in order.
type Conversation struct {
	responder Responder

	mu    sync.Mutex
	turns []Turn
}

// NewConversation starts an empty conversation.
func NewConversation(responder Responder) *Conversation {
	return &Conversation{responder: responder}
}

// Send responds to text and, on success, extends the transcript with
// the user and assistant turns. A failed Send leaves the transcript
// unchanged.
func (c *Conversation) Send(ctx context.Context, text string) (*Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply, err := c.responder.Respond(ctx, text, c.turns)
	if err != nil {
		return nil, err
	}
	c.turns = slices.Clone(reply.Turns)
	return reply, nil
}

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.turns)
}

// Reset forgets the transcript.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}
