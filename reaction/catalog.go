// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package reaction

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
)

// Emotions the system prompt teaches the model to emit.
const (
	Eager     = "eager"
	Confused  = "confused"
	Exhausted = "exhausted"
	Proud     = "proud"
)

// Catalog maps an emotion name to its media URLs.
type Catalog map[string][]string

type catalogEntry struct {
	Emotion string   `json:"emotion"`
	GIFs    []string `json:"gifs"`
}

// Parse reads a catalog of the form
//
//	[{"emotion": "eager", "gifs": ["https://media.tenor.com/..."]}]
//
// Comments and trailing commas are allowed. Emotion names are
// lowercased. Entries for the same emotion are merged, and empty URLs
// are dropped.
func Parse(data []byte) (Catalog, error) {
	var entries []catalogEntry
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, fmt.Errorf("parsing reaction catalog: %w", err)
	}

	catalog := make(Catalog, len(entries))
	for index, entry := range entries {
		emotion := strings.ToLower(strings.TrimSpace(entry.Emotion))
		if emotion == "" {
			return nil, fmt.Errorf("reaction catalog entry %d: emotion is required", index)
		}
		for _, gif := range entry.GIFs {
			if gif = strings.TrimSpace(gif); gif != "" {
				catalog[emotion] = append(catalog[emotion], gif)
			}
		}
	}
	return catalog, nil
}

// LoadCatalog reads and parses the catalog file at path.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reaction catalog: %w", err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// Emotions returns the catalog's emotion names in sorted order.
func (c Catalog) Emotions() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var allowedMediaHosts = []string{
	"media.tenor.com",
	"c.tenor.com",
	"media.giphy.com",
	"i.giphy.com",
	"media0.giphy.com",
	"media1.giphy.com",
	"media2.giphy.com",
	"media3.giphy.com",
	"media4.giphy.com",
}

// AllowedMediaHost reports whether rawURL is an http(s) URL on one of
// the trusted media hosts.
func AllowedMediaHost(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return false
	}
	return slices.Contains(allowedMediaHosts, strings.ToLower(parsed.Hostname()))
}
