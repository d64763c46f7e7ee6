// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides network and HTTP I/O utilities.
//
// The body helpers bound every read so that a misbehaving peer cannot
// exhaust memory: DecodeResponse and ErrorBody for responses from the
// language-model API, DecodeRequest for bodies posted to the intern's
// own HTTP API.
//
// IsExpectedCloseError classifies errors that occur during normal
// connection teardown, so that tearing down a tunnel or SSH session
// does not log noise.
package netutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxResponseSize bounds response body reads: 16 MiB. Chat completion
// replies are a few kilobytes.
const MaxResponseSize int64 = 16 << 20

// MaxRequestSize bounds request body reads: 1 MiB. A chat request
// carries the whole conversation, including folded command output.
const MaxRequestSize int64 = 1 << 20

// ErrBodyTooLarge is returned by DecodeRequest for bodies over
// MaxRequestSize.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a JSON response body (up to MaxResponseSize
// bytes) and decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	return json.Unmarshal(data, v)
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are ignored; a
// partial or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return string(data)
}

// DecodeRequest decodes a JSON request body into v, rejecting bodies
// larger than MaxRequestSize with ErrBodyTooLarge.
func DecodeRequest(body io.Reader, v any) error {
	data, err := io.ReadAll(io.LimitReader(body, MaxRequestSize+1))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if int64(len(data)) > MaxRequestSize {
		return ErrBodyTooLarge
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
