// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"
	"os"
	"slices"

	"github.com/sleepyleo/intern/api"
	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/lib/llm"
	"github.com/sleepyleo/intern/lib/service"
)

// backend is what the exec, chat and health commands talk to: a running
// "intern serve" over its socket, or a stack built in this process.
type backend interface {
	Exec(ctx context.Context, command string) (bridge.Result, error)
	chat.Responder
	Health(ctx context.Context) (api.HealthResponse, error)
	Close() error
}

// connectFlags choose the backend.
type connectFlags struct {
	configFlags
	Socket string `flag:"socket" desc:"control socket of a running intern serve (default: api.socket_path when it exists)"`
	Local  bool   `flag:"local" desc:"build the bridge in this process even if intern serve is running"`
}

func (f connectFlags) open(logger *slog.Logger) (backend, error) {
	if f.Socket != "" && !f.Local {
		return &socketBackend{client: service.NewClient(f.Socket)}, nil
	}
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	if !f.Local && isSocket(cfg.API.SocketPath) {
		logger.Debug("using running server", "socket", cfg.API.SocketPath)
		return &socketBackend{client: service.NewClient(cfg.API.SocketPath)}, nil
	}
	s, err := buildStack(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &localBackend{stack: s}, nil
}

func isSocket(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode()&os.ModeSocket != 0
}

// withUserTurn returns the messages array for a chat request.
func withUserTurn(prior []chat.Turn, userText string) []chat.Turn {
	return append(slices.Clone(prior), chat.Turn{Role: llm.RoleUser, Content: userText})
}

type socketBackend struct {
	client *service.Client
}

func (b *socketBackend) Exec(ctx context.Context, command string) (bridge.Result, error) {
	var result bridge.Result
	err := b.client.Call(ctx, api.ActionExec, map[string]any{"command": command}, &result)
	return result, err
}

func (b *socketBackend) Respond(ctx context.Context, userText string, prior []chat.Turn) (*chat.Reply, error) {
	var reply chat.Reply
	fields := map[string]any{"messages": withUserTurn(prior, userText)}
	if err := b.client.Call(ctx, api.ActionChat, fields, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (b *socketBackend) Health(ctx context.Context) (api.HealthResponse, error) {
	var response api.HealthResponse
	err := b.client.Call(ctx, api.ActionHealth, nil, &response)
	return response, err
}

func (b *socketBackend) Close() error { return nil }

type localBackend struct {
	stack *stack
}

func (b *localBackend) Exec(_ context.Context, command string) (bridge.Result, error) {
	return b.stack.handler.Exec(api.ExecRequest{Command: command})
}

func (b *localBackend) Respond(ctx context.Context, userText string, prior []chat.Turn) (*chat.Reply, error) {
	return b.stack.handler.Chat(ctx, api.ChatRequest{Messages: withUserTurn(prior, userText)})
}

func (b *localBackend) Health(ctx context.Context) (api.HealthResponse, error) {
	return b.stack.handler.Health(ctx), nil
}

func (b *localBackend) Close() error { return b.stack.Close() }
