// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"fmt"

	"github.com/sleepyleo/intern/lib/codec"
	"github.com/sleepyleo/intern/lib/service"
)

// Socket action names.
const (
	ActionExec   = "exec"
	ActionChat   = "chat"
	ActionHealth = "health"
)

// RegisterActions adds the exec, chat and health actions to server.
func (h *Handler) RegisterActions(server *service.SocketServer) {
	server.Handle(ActionExec, h.execAction)
	server.Handle(ActionChat, h.chatAction)
	server.Handle(ActionHealth, h.healthAction)
}

func (h *Handler) execAction(_ context.Context, raw []byte) (any, error) {
	var request ExecRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding exec request: %w", err)
	}
	return h.Exec(request)
}

func (h *Handler) chatAction(ctx context.Context, raw []byte) (any, error) {
	var request ChatRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding chat request: %w", err)
	}
	return h.Chat(ctx, request)
}

func (h *Handler) healthAction(ctx context.Context, _ []byte) (any, error) {
	return h.Health(ctx), nil
}
