// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reaction

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Bag draws media URLs per emotion without repeating any URL until the
// emotion's whole set has been drawn. It is safe for concurrent use.
type Bag struct {
	catalog Catalog
	shuffle func(n int, swap func(i, j int))

	mu        sync.Mutex
	remaining map[string][]string
}

// NewBag returns a Bag over catalog. The catalog must not be modified
// afterwards.
func NewBag(catalog Catalog) *Bag {
	return &Bag{
		catalog:   catalog,
		shuffle:   rand.Shuffle,
		remaining: make(map[string][]string),
	}
}

// Next returns the next URL for emotion. It reports false when the
// emotion is unknown or has no media.
func (b *Bag) Next(emotion string) (string, bool) {
	emotion = strings.ToLower(strings.TrimSpace(emotion))
	all := b.catalog[emotion]
	if len(all) == 0 {
		return "", false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.remaining[emotion]
	if len(remaining) == 0 {
		remaining = append([]string(nil), all...)
		b.shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
	}
	last := len(remaining) - 1
	next := remaining[last]
	b.remaining[emotion] = remaining[:last]
	return next, true
}

// Known reports whether emotion has any media.
func (b *Bag) Known(emotion string) bool {
	return len(b.catalog[strings.ToLower(strings.TrimSpace(emotion))]) > 0
}
