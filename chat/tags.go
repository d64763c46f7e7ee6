// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"regexp"
	"strings"
)

var (
	commandTag = regexp.MustCompile(`<command>([\s\S]*?)</command>`)
	emotionTag = regexp.MustCompile(`<emotion>([\s\S]*?)</emotion>`)
)

// extractCommands returns the trimmed body of every command tag in
// document order, skipping empty ones.
func extractCommands(reply string) []string {
	var commands []string
	for _, match := range commandTag.FindAllStringSubmatch(reply, -1) {
		if command := strings.TrimSpace(match[1]); command != "" {
			commands = append(commands, command)
		}
	}
	return commands
}

// extractEmotion returns the lowercased body of the first emotion tag,
// or "" if there is none.
func extractEmotion(reply string) string {
	match := emotionTag.FindStringSubmatch(reply)
	if match == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(match[1]))
}

// stripTags removes every command and emotion tag, bodies included.
func stripTags(reply string) string {
	reply = commandTag.ReplaceAllString(reply, "")
	reply = emotionTag.ReplaceAllString(reply, "")
	return strings.TrimSpace(reply)
}
