// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remoteshell

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/sleepyleo/intern/lib/netutil"
	"github.com/sleepyleo/intern/lib/secret"
)

// MaxOutputBytes caps each of stdout and stderr. Output beyond the cap
// is dropped and a marker is appended.
const MaxOutputBytes = 1 << 20

// Config carries the login details for one session.
type Config struct {
	User string

	// Password is borrowed, not closed by the session.
	Password *secret.Buffer

	// Signer, when set, is offered before the password.
	Signer ssh.Signer

	// HostKey pins the server key. Nil accepts any key.
	HostKey ssh.PublicKey

	// OnAuthenticate runs once key exchange has finished and the
	// server's key was accepted, just before credentials are sent.
	OnAuthenticate func()

	Logger *slog.Logger
}

// ProtocolError is any failure in the SSH layer: handshake,
// authentication, channel setup, or a command that ended without an
// exit status.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("ssh %s: %v", e.Op, e.Err) }

func (e *ProtocolError) Unwrap() error { return e.Err }

// Output is the result of a command that reported an exit status.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Session is an authenticated SSH client connection.
type Session struct {
	client *ssh.Client
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open performs the SSH handshake and authentication over conn. addr
// is only used as the host name in host key callbacks and logs. On
// failure conn is closed.
func Open(conn net.Conn, addr string, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods(cfg),
		HostKeyCallback: hostKeyCallback(cfg, logger),
	}

	clientConn, channels, requests, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		return nil, &ProtocolError{Op: "handshake", Err: err}
	}
	logger.Debug("ssh session established", "user", cfg.User, "server_version", string(clientConn.ServerVersion()))
	return &Session{
		client: ssh.NewClient(clientConn, channels, requests),
		logger: logger,
	}, nil
}

func authMethods(cfg Config) []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if cfg.Signer != nil {
		methods = append(methods, ssh.PublicKeys(cfg.Signer))
	}
	if cfg.Password != nil {
		password := cfg.Password
		methods = append(methods,
			ssh.PasswordCallback(func() (string, error) {
				return password.String(), nil
			}),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					if !echos[i] {
						answers[i] = password.String()
					}
				}
				return answers, nil
			}),
		)
	}
	return methods
}

func hostKeyCallback(cfg Config, logger *slog.Logger) ssh.HostKeyCallback {
	var verify ssh.HostKeyCallback
	if cfg.HostKey != nil {
		verify = ssh.FixedHostKey(cfg.HostKey)
	} else {
		verify = func(hostname string, _ net.Addr, key ssh.PublicKey) error {
			logger.Warn("accepting unpinned ssh host key",
				"host", hostname,
				"fingerprint", ssh.FingerprintSHA256(key))
			return nil
		}
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		if err := verify(hostname, remote, key); err != nil {
			return err
		}
		if cfg.OnAuthenticate != nil {
			cfg.OnAuthenticate()
		}
		return nil
	}
}

// Exec runs command and waits for its exit status. A non-zero exit is
// reported in Output, not as an error. Errors are *ProtocolError.
func (s *Session) Exec(command string) (Output, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return Output{}, &ProtocolError{Op: "opening session", Err: err}
	}
	defer session.Close()

	stdout := &cappedBuffer{limit: MaxOutputBytes}
	stderr := &cappedBuffer{limit: MaxOutputBytes}
	session.Stdout = stdout
	session.Stderr = stderr

	err = session.Run(command)
	output := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		return output, nil
	case errors.As(err, &exitErr):
		output.ExitCode = exitErr.ExitStatus()
		if output.ExitCode == 0 {
			// Terminated by a signal without a status.
			output.ExitCode = 128
		}
		return output, nil
	default:
		return output, &ProtocolError{Op: "exec", Err: err}
	}
}

// Close tears down the connection. It is safe to call repeatedly and
// concurrently with Exec.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if err := s.client.Close(); err != nil && !netutil.IsExpectedCloseError(err) {
			s.closeErr = err
		}
	})
	return s.closeErr
}
