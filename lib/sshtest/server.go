// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sleepyleo/intern/lib/testutil"
)

// NoExitStatus, returned by a Handler, closes the channel without
// sending an exit status.
const NoExitStatus = -1

// Exec is one exec request as seen by a Handler.
type Exec struct {
	Command string
	Stdout  io.Writer
	Stderr  io.Writer

	// Closed is closed when the client connection goes away.
	Closed <-chan struct{}
}

// Handler runs a command and returns its exit status, or NoExitStatus.
type Handler func(exec Exec) int

// Server accepts SSH connections for User/Password.
type Server struct {
	User     string
	Password string
	Handler  Handler

	signer ssh.Signer

	mu       sync.Mutex
	commands []string
	attempts int
}

// NewServer creates a server with a fresh ed25519 host key.
func NewServer(t testing.TB, user, password string, handler Handler) *Server {
	t.Helper()
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(privateKey)
	if err != nil {
		t.Fatalf("wrapping host key: %v", err)
	}
	return &Server{User: user, Password: password, Handler: handler, signer: signer}
}

// HostKey returns the server's public host key.
func (s *Server) HostKey() ssh.PublicKey { return s.signer.PublicKey() }

// Commands returns the exec commands received so far.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// PasswordAttempts returns how many password checks were made.
func (s *Server) PasswordAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Pipe serves one connection over net.Pipe and returns the client end.
// The test fails at cleanup if the server goroutines have not exited.
func (s *Server) Pipe(t testing.TB) net.Conn {
	t.Helper()
	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(server)
	}()
	t.Cleanup(func() {
		client.Close()
		testutil.RequireClosed(t, done, 5*time.Second, "ssh test server shutdown")
	})
	return client
}

// Serve handles a single connection until the client disconnects.
func (s *Server) Serve(conn net.Conn) error {
	config := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			s.mu.Lock()
			s.attempts++
			s.mu.Unlock()
			if meta.User() == s.User && string(password) == s.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", meta.User())
		},
	}
	config.AddHostKey(s.signer)

	serverConn, channels, requests, err := ssh.NewServerConn(conn, config)
	if err != nil {
		conn.Close()
		return err
	}
	defer serverConn.Close()

	closed := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = serverConn.Wait()
		close(closed)
	}()
	go func() {
		defer wg.Done()
		ssh.DiscardRequests(requests)
	}()

	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		channel, channelRequests, err := newChannel.Accept()
		if err != nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveSession(channel, channelRequests, closed)
		}()
	}
	serverConn.Close()
	wg.Wait()
	return nil
}

func (s *Server) serveSession(channel ssh.Channel, requests <-chan *ssh.Request, closed <-chan struct{}) {
	defer channel.Close()
	for request := range requests {
		if request.Type != "exec" {
			_ = request.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(request.Payload, &payload); err != nil {
			_ = request.Reply(false, nil)
			continue
		}
		_ = request.Reply(true, nil)

		s.mu.Lock()
		s.commands = append(s.commands, payload.Command)
		s.mu.Unlock()

		status := s.Handler(Exec{
			Command: payload.Command,
			Stdout:  channel,
			Stderr:  channel.Stderr(),
			Closed:  closed,
		})
		if status != NoExitStatus {
			_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{uint32(status)}))
		}
		return
	}
}
