// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestDecodeResponse(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := bytes.NewReader([]byte(`{"model":"google/gemini-2.5-flash","choices":[{}]}`))
		var result struct {
			Model   string `json:"model"`
			Choices []any  `json:"choices"`
		}
		if err := DecodeResponse(body, &result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Model != "google/gemini-2.5-flash" || len(result.Choices) != 1 {
			t.Fatalf("decoded %+v", result)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if err := DecodeResponse(bytes.NewReader([]byte(`not json`)), &struct{}{}); err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})

	t.Run("read error propagates", func(t *testing.T) {
		if err := DecodeResponse(&failReader{}, &struct{}{}); err == nil {
			t.Fatal("expected error from failing reader")
		}
	})
}

func TestErrorBody(t *testing.T) {
	t.Run("returns body as string", func(t *testing.T) {
		got := ErrorBody(bytes.NewReader([]byte(`{"error":{"message":"no credits"}}`)))
		if got != `{"error":{"message":"no credits"}}` {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("truncates long bodies", func(t *testing.T) {
		got := ErrorBody(strings.NewReader(strings.Repeat("x", 10000)))
		if len(got) != 4096 {
			t.Fatalf("got %d bytes, want 4096", len(got))
		}
	})

	t.Run("read error returns empty", func(t *testing.T) {
		if got := ErrorBody(&failReader{}); got != "" {
			t.Fatalf("expected empty from failing reader, got %q", got)
		}
	})
}

func TestDecodeRequest(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		var request struct {
			Command string `json:"command"`
		}
		if err := DecodeRequest(strings.NewReader(`{"command":"uptime"}`), &request); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if request.Command != "uptime" {
			t.Fatalf("command = %q", request.Command)
		}
	})

	t.Run("exactly at the limit is read", func(t *testing.T) {
		body := `"` + strings.Repeat("a", int(MaxRequestSize)-2) + `"`
		var value string
		if err := DecodeRequest(strings.NewReader(body), &value); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("over the limit", func(t *testing.T) {
		body := strings.Repeat(" ", int(MaxRequestSize)) + "{}"
		err := DecodeRequest(strings.NewReader(body), &struct{}{})
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("error = %v, want ErrBodyTooLarge", err)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if err := DecodeRequest(strings.NewReader(`{`), &struct{}{}); err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})
}

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{io.EOF, true},
		{fmt.Errorf("reading: %w", io.EOF), true},
		{net.ErrClosed, true},
		{&net.OpError{Op: "write", Err: syscall.EPIPE}, true},
		{syscall.ECONNRESET, true},
		{syscall.ECONNREFUSED, false},
		{errors.New("handshake failed"), false},
	}
	for _, test := range tests {
		if got := IsExpectedCloseError(test.err); got != test.want {
			t.Errorf("IsExpectedCloseError(%v) = %v, want %v", test.err, got, test.want)
		}
	}
}

// failReader always returns an error on Read.
type failReader struct{}

func (*failReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("simulated read failure")
}
