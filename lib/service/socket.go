// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sleepyleo/intern/lib/codec"
)

// ActionFunc handles one socket request. raw is the whole CBOR request,
// "action" field included; the handler decodes its own fields from it.
//
// A non-nil result is CBOR-encoded into the response's data field. A
// returned error becomes {ok: false, error: err.Error()}.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// Response is the envelope of every socket reply.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

const (
	// readTimeout bounds how long a connected client may take to send
	// its request.
	readTimeout = 30 * time.Second

	writeTimeout = 10 * time.Second

	// maxRequestSize caps one CBOR request. A chat request carries the
	// transcript, folded command output included.
	maxRequestSize = 1024 * 1024
)

// SocketOption configures a SocketServer.
type SocketOption func(*SocketServer)

// WithMaxConcurrent caps the number of requests handled at once.
// Requests over the cap wait for a slot. Zero or negative means no cap.
func WithMaxConcurrent(n int) SocketOption {
	return func(s *SocketServer) {
		if n > 0 {
			s.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// SocketServer answers one CBOR request per connection on a unix
// socket: the client writes a request map with an "action" key, the
// server writes a Response and closes. Register actions with Handle
// before Serve.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	logger     *slog.Logger
	slots      *semaphore.Weighted
	ready      chan struct{}

	inflight sync.WaitGroup
}

// NewSocketServer returns a server for socketPath.
func NewSocketServer(socketPath string, logger *slog.Logger, options ...SocketOption) *SocketServer {
	s := &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
		ready:      make(chan struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Ready is closed once the socket is bound and restricted to its owner.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Handle registers handler for action. It panics on a duplicate.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Serve listens until ctx is cancelled, then waits for in-flight
// requests. A stale socket file at the path is replaced; the socket
// file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	defer os.Remove(s.socketPath)

	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	s.logger.Info("socket server listening", "path", s.socketPath)
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.serveConn(ctx, conn)
		}()
	}
	listener.Close()
	s.inflight.Wait()
	return nil
}

// listen binds the socket with owner-only permissions and signals Ready.
func (s *SocketServer) listen() (net.Listener, error) {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		os.Remove(s.socketPath)
		return nil, fmt.Errorf("restricting socket %s: %w", s.socketPath, err)
	}
	close(s.ready)
	return listener, nil
}

func (s *SocketServer) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.respond(conn, nil, fmt.Errorf("invalid request: %v", err))
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.respond(conn, nil, fmt.Errorf("invalid request: %v", err))
		return
	}
	handler, err := s.route(header.Action)
	if err != nil {
		s.respond(conn, nil, err)
		return
	}

	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			s.respond(conn, nil, errors.New("server shutting down"))
			return
		}
		defer s.slots.Release(1)
	}

	start := time.Now()
	result, err := s.call(ctx, header.Action, handler, raw)
	s.logger.Debug("socket request",
		"action", header.Action,
		"duration", time.Since(start),
		"error", err,
	)
	s.respond(conn, result, err)
}

func (s *SocketServer) route(action string) (ActionFunc, error) {
	if action == "" {
		return nil, errors.New("missing required field: action")
	}
	handler, exists := s.handlers[action]
	if !exists {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	return handler, nil
}

// call runs handler, converting a panic into an error response so one
// bad request cannot take the server down.
func (s *SocketServer) call(ctx context.Context, action string, handler ActionFunc, raw []byte) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("socket action panicked", "action", action, "panic", recovered)
			result, err = nil, fmt.Errorf("internal error handling %q", action)
		}
	}()
	return handler(ctx, raw)
}

// respond writes the envelope for result or err. Write failures are
// logged at debug level; the connection is closing regardless.
func (s *SocketServer) respond(conn net.Conn, result any, err error) {
	response := Response{OK: err == nil}
	if err != nil {
		response.Error = err.Error()
	} else if result != nil {
		data, marshalErr := codec.Marshal(result)
		if marshalErr != nil {
			response = Response{Error: fmt.Sprintf("internal: marshaling response: %v", marshalErr)}
		} else {
			response.Data = data
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("writing socket response", "error", err)
	}
}
