// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remoteshell

import (
	"bytes"
	"sync"
)

const truncatedMarker = "\n[output truncated]"

// cappedBuffer accumulates up to limit bytes and silently discards the
// rest so a runaway command cannot exhaust memory.
type cappedBuffer struct {
	mu        sync.Mutex
	limit     int
	buffer    bytes.Buffer
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buffer.Len(); room < len(p) {
		b.buffer.Write(p[:max(room, 0)])
		b.truncated = true
		return len(p), nil
	}
	b.buffer.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.truncated {
		return b.buffer.String() + truncatedMarker
	}
	return b.buffer.String()
}
