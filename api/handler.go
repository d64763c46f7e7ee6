// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/health"
	"github.com/sleepyleo/intern/lib/llm"
	"github.com/sleepyleo/intern/lib/netutil"
)

// Executor runs one command on the remote host.
type Executor interface {
	Run(command string) bridge.Result
}

// Responder answers a chat message given the prior transcript.
type Responder interface {
	Respond(ctx context.Context, userText string, prior []chat.Turn) (*chat.Reply, error)
}

// Collector measures host health.
type Collector interface {
	Collect(ctx context.Context) health.Snapshot
}

// Config assembles a Handler.
type Config struct {
	Executor  Executor
	Collector Collector

	// Responder answers chat. Nil makes chat requests fail with 503,
	// for deployments without a language model key.
	Responder Responder

	// MediaClient fetches reaction media for /api/gif. Defaults to
	// NewMediaClient with a 30 second timeout.
	MediaClient *http.Client

	Logger *slog.Logger
}

// Handler serves the HTTP API and the socket actions.
type Handler struct {
	executor    Executor
	collector   Collector
	responder   Responder
	mediaClient *http.Client
	logger      *slog.Logger
}

// NewHandler returns a Handler. Executor and Collector are required.
func NewHandler(config Config) *Handler {
	if config.Executor == nil {
		panic("api.Handler: Executor is required")
	}
	if config.Collector == nil {
		panic("api.Handler: Collector is required")
	}
	handler := &Handler{
		executor:    config.Executor,
		collector:   config.Collector,
		responder:   config.Responder,
		mediaClient: config.MediaClient,
		logger:      config.Logger,
	}
	if handler.mediaClient == nil {
		handler.mediaClient = NewMediaClient(30 * time.Second)
	}
	if handler.logger == nil {
		handler.logger = slog.Default()
	}
	return handler
}

// Routes returns the HTTP routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/exec", h.HandleExec)
	mux.HandleFunc("POST /api/chat", h.HandleChat)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/gif", h.HandleMedia)
	return mux
}

// ExecRequest is the body of POST /api/exec and the "exec" action.
type ExecRequest struct {
	Command string `json:"command"`
}

// ChatRequest is the body of POST /api/chat and the "chat" action. The
// last message is the new user message; the rest is the transcript.
type ChatRequest struct {
	Messages []chat.Turn `json:"messages"`
}

// HealthResponse is a snapshot with its derived fields.
type HealthResponse struct {
	health.Snapshot
	Status         health.Status `json:"status"`
	UptimeReadable string        `json:"uptime_readable"`
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// requestError is a client mistake, reported as 400.
type requestError struct{ message string }

func (e *requestError) Error() string { return e.message }

// HandleExec runs one command typed into the console.
func (h *Handler) HandleExec(w http.ResponseWriter, r *http.Request) {
	var request ExecRequest
	if !h.decode(w, r, &request) {
		return
	}
	result, err := h.Exec(request)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "%v", err)
		return
	}
	h.writeJSON(w, result)
}

// Exec validates the command length and runs it. The error is non-nil
// only for a rejected request; every execution outcome is a Result.
func (h *Handler) Exec(request ExecRequest) (bridge.Result, error) {
	switch err := bridge.CheckLength(request.Command); {
	case errors.Is(err, bridge.ErrCommandRequired):
		return bridge.Result{}, &requestError{"Command is required"}
	case errors.Is(err, bridge.ErrCommandTooLong):
		return bridge.Result{}, &requestError{fmt.Sprintf("Command too long (max %d characters)", bridge.MaxCommandLength)}
	}
	return h.executor.Run(request.Command), nil
}

// HandleChat answers one chat message.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var request ChatRequest
	if !h.decode(w, r, &request) {
		return
	}
	reply, err := h.Chat(r.Context(), request)
	if err != nil {
		var clientErr *requestError
		switch {
		case errors.As(err, &clientErr):
			h.sendError(w, http.StatusBadRequest, "%s", clientErr.message)
		case errors.Is(err, errChatUnavailable):
			h.sendError(w, http.StatusServiceUnavailable, "%v", err)
		default:
			h.sendError(w, http.StatusBadGateway, "Failed to get AI response")
		}
		return
	}
	h.writeJSON(w, reply)
}

var errChatUnavailable = errors.New("language model is not configured")

// Chat validates a chat request and answers its last message.
func (h *Handler) Chat(ctx context.Context, request ChatRequest) (*chat.Reply, error) {
	if h.responder == nil {
		return nil, errChatUnavailable
	}
	count := len(request.Messages)
	if count == 0 {
		return nil, &requestError{"Messages array is required"}
	}
	last := request.Messages[count-1]
	if last.Role != llm.RoleUser {
		return nil, &requestError{"The last message must come from the user"}
	}
	if err := chat.ValidateTurns(request.Messages); err != nil {
		return nil, &requestError{err.Error()}
	}

	reply, err := h.responder.Respond(ctx, last.Content, request.Messages[:count-1])
	if errors.Is(err, chat.ErrEmptyMessage) {
		return nil, &requestError{"Message is required"}
	}
	if err != nil {
		var providerErr *llm.ProviderError
		if errors.As(err, &providerErr) {
			h.logger.Error("chat model request failed",
				"status", providerErr.StatusCode,
				"type", providerErr.Type,
				"error", providerErr.Message)
		} else {
			h.logger.Error("chat model request failed", "error", err)
		}
		return nil, err
	}
	return reply, nil
}

// HandleHealth reports the remote host's health, or the local
// machine's when the remote is unreachable.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.Health(r.Context()))
}

// Health collects a snapshot and derives its status.
func (h *Handler) Health(ctx context.Context) HealthResponse {
	snapshot := h.collector.Collect(ctx)
	return HealthResponse{
		Snapshot:       snapshot,
		Status:         snapshot.Status(),
		UptimeReadable: health.FormatUptime(snapshot.Uptime),
	}
}

// decode reads a JSON body into v, answering 400 or 413 itself when it
// cannot.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := netutil.DecodeRequest(r.Body, v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, netutil.ErrBodyTooLarge):
		h.sendError(w, http.StatusRequestEntityTooLarge, "request body too large (max %d bytes)", netutil.MaxRequestSize)
	default:
		h.sendError(w, http.StatusBadRequest, "invalid request: %v", err)
	}
	return false
}

func (h *Handler) sendError(w http.ResponseWriter, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: fmt.Sprintf(format, args...)}); err != nil {
		h.logger.Warn("writing JSON error response", "error", err, "status", status)
	}
}

// writeJSON encodes value as JSON into w. If encoding fails (typically
// because the client disconnected), the error is logged.
func (h *Handler) writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Warn("writing JSON response", "error", err)
	}
}
