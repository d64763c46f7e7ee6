// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tunnel

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sleepyleo/intern/lib/binhash"
)

// HostPlaceholder in Config.Args is replaced by the target host.
const HostPlaceholder = "{host}"

// waitDelay bounds how long reaping waits for the stderr copy after the
// child exits, in case a grandchild still holds the pipe.
const waitDelay = 2 * time.Second

// Config describes how to launch the tunnel subprocess.
type Config struct {
	// Binary is the executable, resolved on PATH.
	Binary string

	// Args are passed to Binary after HostPlaceholder substitution.
	Args []string

	// Digest, when non-empty, is the BLAKE3 hex digest Binary must
	// have. A mismatch fails Start.
	Digest string
}

// DefaultConfig launches "cloudflared access ssh --hostname {host}".
func DefaultConfig() Config {
	return Config{
		Binary: "cloudflared",
		Args:   []string{"access", "ssh", "--hostname", HostPlaceholder},
	}
}

// StartError reports that the subprocess could not be launched: the
// binary is missing, fails its digest check, or exec failed.
type StartError struct {
	Binary string
	Err    error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("starting tunnel %s: %v", e.Binary, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ExitError reports that the subprocess exited. It is the value of
// Tunnel.Err once Done is closed.
type ExitError struct {
	// Err is the error from waiting on the process, nil for a clean
	// exit status 0.
	Err error

	// Stderr is the tail of the subprocess's standard error.
	Stderr string

	// Killed is set when the exit followed a call to Kill.
	Killed bool
}

func (e *ExitError) Error() string {
	var b strings.Builder
	b.WriteString("tunnel exited")
	if e.Killed {
		b.WriteString(" after kill")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString(": ")
		b.WriteString(stderr)
	}
	return b.String()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Failed reports whether the subprocess ended on its own with a
// non-zero status or a signal.
func (e *ExitError) Failed() bool { return e.Err != nil && !e.Killed }

// killGroup signals the subprocess's process group.
var killGroup = killProcessGroup

// Tunnel is one running tunnel subprocess.
type Tunnel struct {
	cmd    *exec.Cmd
	conn   *Conn
	stderr *tailBuffer
	logger *slog.Logger

	done     chan struct{}
	err      error
	killOnce sync.Once
	killed   chan struct{}
}

// Start launches the tunnel to host. A nil logger uses slog.Default.
func Start(cfg Config, host string, logger *slog.Logger) (*Tunnel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg = DefaultConfig()
	}

	path, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, &StartError{Binary: cfg.Binary, Err: err}
	}
	if cfg.Digest != "" {
		want, err := binhash.ParseDigest(cfg.Digest)
		if err != nil {
			return nil, &StartError{Binary: path, Err: err}
		}
		if err := binhash.Verify(path, want); err != nil {
			return nil, &StartError{Binary: path, Err: err}
		}
	}

	args := make([]string, len(cfg.Args))
	for i, arg := range cfg.Args {
		args[i] = strings.ReplaceAll(arg, HostPlaceholder, host)
	}

	// Parent reads childStdout via stdoutRead and writes the child's
	// stdin via stdinWrite. The child ends are closed in the parent
	// after Start so EOF follows the child's exit.
	stdinRead, stdinWrite, err := os.Pipe()
	if err != nil {
		return nil, &StartError{Binary: path, Err: fmt.Errorf("creating stdin pipe: %w", err)}
	}
	stdoutRead, stdoutWrite, err := os.Pipe()
	if err != nil {
		stdinRead.Close()
		stdinWrite.Close()
		return nil, &StartError{Binary: path, Err: fmt.Errorf("creating stdout pipe: %w", err)}
	}

	stderr := newTailBuffer(4096)
	cmd := exec.Command(path, args...)
	cmd.Stdin = stdinRead
	cmd.Stdout = stdoutWrite
	cmd.Stderr = stderr
	cmd.Env = sanitizedEnvironment()
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		for _, file := range []*os.File{stdinRead, stdinWrite, stdoutRead, stdoutWrite} {
			file.Close()
		}
		return nil, &StartError{Binary: path, Err: err}
	}
	stdinRead.Close()
	stdoutWrite.Close()

	t := &Tunnel{
		cmd:    cmd,
		conn:   newConn(stdoutRead, stdinWrite, host),
		stderr: stderr,
		logger: logger.With("tunnel_pid", cmd.Process.Pid, "host", host),
		done:   make(chan struct{}),
		killed: make(chan struct{}),
	}
	t.conn.exited = t.done
	t.conn.exitErr = t.Err
	t.logger.Debug("tunnel started", "binary", path)
	go t.wait()
	return t, nil
}

func (t *Tunnel) wait() {
	waitErr := t.cmd.Wait()
	exitErr := &ExitError{Err: waitErr, Stderr: t.stderr.String()}
	select {
	case <-t.killed:
		exitErr.Killed = true
	default:
	}
	t.err = exitErr
	t.logger.Debug("tunnel exited", "error", waitErr)
	close(t.done)
}

// Conn returns the subprocess's standard streams as a connection.
func (t *Tunnel) Conn() net.Conn { return t.conn }

// Done is closed once the subprocess has exited and been reaped.
func (t *Tunnel) Done() <-chan struct{} { return t.done }

// Err returns the *ExitError describing the exit. It is nil until Done
// is closed.
func (t *Tunnel) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Pid returns the subprocess's process ID.
func (t *Tunnel) Pid() int { return t.cmd.Process.Pid }

// Kill terminates the subprocess and its process group, closes the
// connection and waits for the process to be reaped. It is safe to
// call more than once and from several goroutines. No signal is sent
// once the subprocess has been reaped, since its group id may have
// been reused.
func (t *Tunnel) Kill() {
	t.killOnce.Do(func() {
		close(t.killed)
		select {
		case <-t.done:
		default:
			if err := killGroup(t.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
				t.logger.Warn("killing tunnel", "error", err)
			}
		}
		if err := t.conn.Close(); err != nil {
			t.logger.Debug("closing tunnel streams", "error", err)
		}
	})
	<-t.done
}

// sanitizedEnvironment passes through only the variables the gateway
// client needs, so the model's API key and similar secrets in the
// parent environment never reach it.
func sanitizedEnvironment() []string {
	var env []string
	for _, name := range []string{
		"PATH", "HOME", "USER", "LANG", "LC_ALL", "TZ", "TMPDIR",
		"XDG_CONFIG_HOME", "TUNNEL_SERVICE_TOKEN_ID", "TUNNEL_SERVICE_TOKEN_SECRET",
	} {
		if value := os.Getenv(name); value != "" {
			env = append(env, name+"="+value)
		}
	}
	return env
}
