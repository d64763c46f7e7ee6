// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"github.com/sleepyleo/intern/lib/clock"
	"github.com/sleepyleo/intern/lib/secret"
	"github.com/sleepyleo/intern/remoteshell"
	"github.com/sleepyleo/intern/safety"
	"github.com/sleepyleo/intern/tunnel"
)

// DefaultTimeout bounds an invocation when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Remote identifies the target host and login.
type Remote struct {
	Host string
	User string

	// Password is borrowed; the Bridge never closes it.
	Password *secret.Buffer

	// Signer is an optional private key offered before the password.
	Signer ssh.Signer

	// HostKey pins the server key. Nil accepts any key.
	HostKey ssh.PublicKey
}

func (r Remote) configured() bool {
	return r.Host != "" && r.User != "" && (r.Password != nil || r.Signer != nil)
}

// Config assembles a Bridge.
type Config struct {
	Remote Remote

	// Dialer starts tunnels. Nil launches the default tunnel binary.
	Dialer Dialer

	// Filter screens commands. Nil uses the built-in deny-list only.
	Filter *safety.Filter

	// Timeout bounds an invocation from tunnel start to finalization.
	Timeout time.Duration

	Clock  clock.Clock
	Logger *slog.Logger

	// OnTransition, when set, observes every state change.
	OnTransition func(invocationID string, state State)
}

// Bridge runs commands on one remote host. It is safe for concurrent
// use; each Run is independent.
type Bridge struct {
	remote       Remote
	dialer       Dialer
	filter       *safety.Filter
	timeout      time.Duration
	clock        clock.Clock
	logger       *slog.Logger
	onTransition func(string, State)
}

// New returns a Bridge with defaults filled in.
func New(cfg Config) *Bridge {
	b := &Bridge{
		remote:       cfg.Remote,
		dialer:       cfg.Dialer,
		filter:       cfg.Filter,
		timeout:      cfg.Timeout,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		onTransition: cfg.OnTransition,
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.dialer == nil {
		b.dialer = TunnelDialer{Config: tunnel.DefaultConfig(), Logger: b.logger}
	}
	if b.filter == nil {
		b.filter = &safety.Filter{}
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.clock == nil {
		b.clock = clock.Real()
	}
	return b
}

// Configured reports whether Run can reach the remote host at all.
func (b *Bridge) Configured() bool { return b.remote.configured() }

// Run executes command on the remote host. It always returns a
// Result; the timeout is the only cancellation.
func (b *Bridge) Run(command string) Result {
	inv := &invocation{
		id:           uuid.NewString(),
		command:      command,
		done:         make(chan struct{}),
		onTransition: b.onTransition,
	}
	inv.logger = b.logger.With("invocation_id", inv.id)
	start := b.clock.Now()
	defer func() {
		inv.logger.Info("command finalized",
			"command", command,
			"success", inv.result.Success,
			"failure", inv.result.Failure,
			"duration", b.clock.Now().Sub(start))
	}()

	inv.transition(Filtering)
	if verdict := b.filter.Evaluate(command); !verdict.Allowed {
		inv.finalize(failed(command, FailurePolicyDenied, verdict.Reason))
		return inv.result
	}
	if !b.remote.configured() {
		inv.finalize(failed(command, FailureConfiguration,
			"Remote access is not configured: set the remote host, user and credential"))
		return inv.result
	}

	inv.transition(Connecting)
	timer := b.clock.AfterFunc(b.timeout, func() {
		inv.finalize(failed(command, FailureTimedOut,
			fmt.Sprintf("Command timed out after %s", b.timeout)))
	})
	defer timer.Stop()

	transport, err := b.dialer.Dial(b.remote.Host)
	if err != nil {
		inv.finalize(failed(command, FailureTransport, "Failed to start tunnel: "+err.Error()))
		<-inv.done
		return inv.result
	}
	if !inv.attachTransport(transport) {
		// The timer won while the tunnel was starting.
		transport.Kill()
		<-inv.done
		return inv.result
	}

	var workers sync.WaitGroup
	workers.Add(2)
	go func() {
		defer workers.Done()
		select {
		case <-transport.Done():
			// A clean exit leaves the outcome to the SSH side, which
			// sees EOF.
			if exitFailed(transport.Err()) {
				inv.finalize(failed(command, FailureTransport, tunnelClosedMessage(transport.Err())))
			}
		case <-inv.done:
		}
	}()
	go func() {
		defer workers.Done()
		b.execute(inv, transport)
	}()

	<-inv.done
	workers.Wait()
	return inv.result
}

// execute drives the SSH half of an invocation and finalizes with its
// outcome.
func (b *Bridge) execute(inv *invocation, transport Transport) {
	session, err := remoteshell.Open(transport.Conn(), net.JoinHostPort(b.remote.Host, "22"), remoteshell.Config{
		User:           b.remote.User,
		Password:       b.remote.Password,
		Signer:         b.remote.Signer,
		HostKey:        b.remote.HostKey,
		OnAuthenticate: func() { inv.transition(Authenticating) },
		Logger:         inv.logger,
	})
	if err != nil {
		inv.finalize(sshFailure(inv.command, err, transport))
		return
	}
	if !inv.attachSession(session) {
		closeSession(inv.logger, session)
		return
	}

	inv.transition(Executing)
	output, err := session.Exec(inv.command)
	if err != nil {
		inv.finalize(sshFailure(inv.command, err, transport))
		return
	}
	inv.finalize(exitResult(inv.command, output.ExitCode, output.Stdout, output.Stderr))
}

// sshFailure classifies an SSH error. The tunnel's streams report a
// failed exit only after the subprocess is reaped, so an SSH error
// caused by a crashed tunnel always finds Done closed.
func sshFailure(command string, err error, transport Transport) Result {
	var exitErr *tunnel.ExitError
	if errors.As(err, &exitErr) && exitErr.Failed() {
		return failed(command, FailureTransport, tunnelClosedMessage(exitErr))
	}
	select {
	case <-transport.Done():
		if exitFailed(transport.Err()) {
			return failed(command, FailureTransport, tunnelClosedMessage(transport.Err()))
		}
	default:
	}
	return failed(command, FailureProtocol, "SSH error: "+err.Error())
}

// exitFailed reports whether a tunnel exit error means the tunnel died
// on its own rather than finishing cleanly or being killed.
func exitFailed(err error) bool {
	if err == nil {
		return false
	}
	var exitErr *tunnel.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Failed()
	}
	return true
}

func tunnelClosedMessage(err error) string {
	message := "Tunnel closed before the command completed"
	var exitErr *tunnel.ExitError
	if errors.As(err, &exitErr) {
		if stderr := strings.TrimSpace(exitErr.Stderr); stderr != "" {
			return message + ": " + stderr
		}
	}
	if err != nil {
		return message + ": " + err.Error()
	}
	return message
}

// invocation is the per-Run state shared by the finalization sources.
type invocation struct {
	id           string
	command      string
	logger       *slog.Logger
	onTransition func(string, State)

	latch  atomic.Bool
	done   chan struct{}
	result Result

	mu        sync.Mutex
	state     State
	torndown  bool
	transport Transport
	session   *remoteshell.Session
}

func (inv *invocation) transition(state State) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.state == Finalized || (inv.latch.Load() && state != Finalized) {
		return
	}
	inv.state = state
	inv.logger.Debug("bridge state", "state", state)
	if inv.onTransition != nil {
		inv.onTransition(inv.id, state)
	}
}

// finalize records result if no other source has finalized yet, then
// tears down and releases Run. It reports whether this call won.
func (inv *invocation) finalize(result Result) bool {
	if !inv.latch.CompareAndSwap(false, true) {
		return false
	}
	result.InvocationID = inv.id
	inv.result = result
	inv.teardown()
	inv.transition(Finalized)
	close(inv.done)
	return true
}

func (inv *invocation) teardown() {
	inv.mu.Lock()
	inv.torndown = true
	session, transport := inv.session, inv.transport
	inv.mu.Unlock()

	if session != nil {
		closeSession(inv.logger, session)
	}
	if transport != nil {
		transport.Kill()
	}
}

// attachTransport hands transport to teardown. It reports false if
// teardown already ran, in which case the caller owns transport.
func (inv *invocation) attachTransport(transport Transport) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.torndown {
		return false
	}
	inv.transport = transport
	return true
}

func (inv *invocation) attachSession(session *remoteshell.Session) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.torndown {
		return false
	}
	inv.session = session
	return true
}

func closeSession(logger *slog.Logger, session *remoteshell.Session) {
	if err := session.Close(); err != nil {
		logger.Warn("closing ssh session", "error", err)
	}
}
