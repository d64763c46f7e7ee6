// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Failure classifies an unsuccessful Result.
type Failure string

const (
	// FailureConfiguration means the remote host, user or credential
	// is missing. Nothing was started.
	FailureConfiguration Failure = "configuration"

	// FailurePolicyDenied means the safety filter refused the command.
	// Nothing was started.
	FailurePolicyDenied Failure = "policy_denied"

	// FailureTransport means the tunnel could not start or exited
	// before the command finished.
	FailureTransport Failure = "transport"

	// FailureProtocol means the SSH layer failed.
	FailureProtocol Failure = "protocol"

	// FailureTimedOut means the deadline passed first.
	FailureTimedOut Failure = "timed_out"

	// FailureRemoteExit means the command ran and exited non-zero.
	FailureRemoteExit Failure = "remote_exit"
)

// NoOutputPlaceholder is the Output of a successful command that
// printed nothing.
const NoOutputPlaceholder = "Command executed successfully (no output)"

// MaxCommandLength is the longest command accepted from a console.
const MaxCommandLength = 1000

var (
	ErrCommandRequired = errors.New("command is required")
	ErrCommandTooLong  = fmt.Errorf("command too long (max %d characters)", MaxCommandLength)
)

// Result is the outcome of one Run. Exactly one of Output (on success)
// and Error (on failure) is set.
type Result struct {
	InvocationID string  `json:"invocation_id,omitempty"`
	Command      string  `json:"command"`
	Success      bool    `json:"success"`
	Output       string  `json:"output,omitempty"`
	Error        string  `json:"error,omitempty"`
	Failure      Failure `json:"failure,omitempty"`
	ExitCode     int     `json:"exit_code,omitempty"`
}

func failed(command string, kind Failure, message string) Result {
	return Result{Command: command, Failure: kind, Error: message}
}

// exitResult builds the Result for a command that reported an exit
// status. Whitespace-only streams count as empty.
func exitResult(command string, exitCode int, stdout, stderr string) Result {
	if exitCode == 0 {
		output := NoOutputPlaceholder
		switch {
		case strings.TrimSpace(stdout) != "":
			output = stdout
		case strings.TrimSpace(stderr) != "":
			output = stderr
		}
		return Result{Command: command, Success: true, Output: output}
	}

	message := fmt.Sprintf("Command failed with exit code %d", exitCode)
	switch {
	case strings.TrimSpace(stderr) != "":
		message = stderr
	case strings.TrimSpace(stdout) != "":
		message = stdout
	}
	result := failed(command, FailureRemoteExit, message)
	result.ExitCode = exitCode
	return result
}

// CheckLength validates a command typed into a console before it is
// handed to Run. Run itself does not enforce a length.
func CheckLength(command string) error {
	if strings.TrimSpace(command) == "" {
		return ErrCommandRequired
	}
	if utf8.RuneCountInString(command) > MaxCommandLength {
		return ErrCommandTooLong
	}
	return nil
}
