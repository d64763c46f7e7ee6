// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"log/slog"
	"net"

	"github.com/sleepyleo/intern/tunnel"
)

// Transport is a running tunnel. *tunnel.Tunnel implements it.
type Transport interface {
	// Conn carries the SSH byte stream.
	Conn() net.Conn

	// Done is closed when the tunnel has exited.
	Done() <-chan struct{}

	// Err describes the exit once Done is closed.
	Err() error

	// Kill stops the tunnel and closes Conn. It must be idempotent and
	// return only once the tunnel has exited.
	Kill()
}

// Dialer starts a Transport to host.
type Dialer interface {
	Dial(host string) (Transport, error)
}

// TunnelDialer starts tunnel subprocesses.
type TunnelDialer struct {
	Config tunnel.Config
	Logger *slog.Logger
}

// Dial launches the tunnel binary for host.
func (d TunnelDialer) Dial(host string) (Transport, error) {
	t, err := tunnel.Start(d.Config, host, d.Logger)
	if err != nil {
		return nil, err
	}
	return t, nil
}
