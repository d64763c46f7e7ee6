// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"time"
)

// Addr names the tunnel endpoint.
type Addr struct {
	Host string
}

// Network returns "tunnel".
func (a Addr) Network() string { return "tunnel" }

func (a Addr) String() string { return a.Host }

// Conn adapts a subprocess's stdout (read side) and stdin (write side)
// to net.Conn.
//
// When the stream ends because the subprocess died, Read and Write wait
// for it to be reaped and return its *ExitError, so whoever is reading
// the stream learns why it ended.
type Conn struct {
	reader *os.File
	writer *os.File
	host   string

	// exited and exitErr describe the subprocess; nil when the Conn is
	// not attached to one.
	exited  <-chan struct{}
	exitErr func() error
	closed  chan struct{}

	closeOnce      sync.Once
	closeWriteOnce sync.Once
	closeErr       error
	closeWriteErr  error
}

var _ net.Conn = (*Conn)(nil)

func newConn(reader, writer *os.File, host string) *Conn {
	return &Conn{reader: reader, writer: writer, host: host, closed: make(chan struct{})}
}

// Read reads subprocess output. Once stdout is closed it returns the
// subprocess's *ExitError if it failed, io.EOF otherwise.
func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	if err == io.EOF {
		return n, c.streamEnded(err)
	}
	return n, err
}

// Write writes to the subprocess's stdin. A broken pipe is reported
// like the end of stdout in Read.
func (c *Conn) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if errors.Is(err, syscall.EPIPE) {
		return n, c.streamEnded(err)
	}
	return n, err
}

// streamEnded waits for the subprocess to be reaped and returns its
// failure, or fallback for a clean exit.
func (c *Conn) streamEnded(fallback error) error {
	if c.exited == nil {
		return fallback
	}
	select {
	case <-c.exited:
	case <-c.closed:
		return fallback
	}
	var exitErr *ExitError
	if errors.As(c.exitErr(), &exitErr) && exitErr.Failed() {
		return exitErr
	}
	return fallback
}

// CloseWrite closes the subprocess's stdin without affecting reads.
func (c *Conn) CloseWrite() error {
	c.closeWriteOnce.Do(func() {
		c.closeWriteErr = c.writer.Close()
	})
	return c.closeWriteErr
}

// Close closes both directions. Pending reads and writes return
// os.ErrClosed.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		writeErr := c.CloseWrite()
		c.closeErr = errors.Join(c.reader.Close(), writeErr)
	})
	return c.closeErr
}

func (c *Conn) LocalAddr() net.Addr  { return Addr{Host: "localhost"} }
func (c *Conn) RemoteAddr() net.Addr { return Addr{Host: c.host} }

func (c *Conn) SetDeadline(t time.Time) error {
	return errors.Join(c.reader.SetReadDeadline(t), c.writer.SetWriteDeadline(t))
}

func (c *Conn) SetReadDeadline(t time.Time) error  { return c.reader.SetReadDeadline(t) }
func (c *Conn) SetWriteDeadline(t time.Time) error { return c.writer.SetWriteDeadline(t) }
