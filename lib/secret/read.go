// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bytes"
	"fmt"
	"os"
)

// ReadFile loads a secret from path into a Buffer, trimming surrounding
// whitespace. An empty file is an error.
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer Zero(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret file %s is empty", path)
	}
	return NewFromBytes(trimmed)
}

// FromString moves a configured string value into a Buffer. The
// string itself cannot be scrubbed; callers should drop it.
func FromString(value string) (*Buffer, error) {
	return NewFromBytes([]byte(value))
}
