// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package safety

import (
	"fmt"
	"strings"
)

// DenyList is the built-in set of forbidden substrings, lowercase, in
// evaluation order.
var DenyList = []string{
	// Recursive forced deletion.
	"rm -rf",
	"rm -fr",
	"rm -r -f",
	"rm -f -r",
	"del /f /s /q",
	// Raw device writes.
	"dd if=",
	"of=/dev/",
	"> /dev/sd",
	"> /dev/nvme",
	// Filesystem formatting.
	"mkfs",
	"format c:",
	"wipefs",
	// Permission bombs.
	"chmod -r 777 /",
	"chmod 777 /",
	// Fork bomb.
	":(){",
	// Outbound transfer.
	"wget",
	"curl",
	"scp ",
	"sftp",
	"rsync",
	"ftp ",
	// Raw sockets.
	"netcat",
	"ncat",
	"nc -e",
	"nc -l",
	"socat",
	"telnet",
}

// Verdict is the outcome of evaluating one command.
type Verdict struct {
	Allowed bool

	// Pattern is the deny-list entry that matched. Empty when allowed.
	Pattern string

	// Reason is a human-readable explanation. Empty when allowed.
	Reason string
}

// Filter evaluates commands against DenyList followed by Extra.
// The zero value uses only DenyList.
type Filter struct {
	// Extra patterns are checked after the built-in list. A "*" in an
	// extra pattern matches any run of characters.
	Extra []string
}

// Evaluate checks command against the built-in list only.
func Evaluate(command string) Verdict {
	var filter Filter
	return filter.Evaluate(command)
}

// Evaluate reports whether command is allowed. The first matching
// pattern wins.
func (f *Filter) Evaluate(command string) Verdict {
	lowered := strings.ToLower(command)
	for _, pattern := range DenyList {
		if strings.Contains(lowered, pattern) {
			return denied(pattern)
		}
	}
	for _, pattern := range f.Extra {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern != "" && containsGlob(lowered, pattern) {
			return denied(pattern)
		}
	}
	return Verdict{Allowed: true}
}

func denied(pattern string) Verdict {
	return Verdict{
		Pattern: pattern,
		Reason:  fmt.Sprintf("Command blocked for safety reasons: matches blocked pattern %q", pattern),
	}
}

// containsGlob reports whether any substring of s matches pattern,
// where "*" in pattern matches any run of characters.
func containsGlob(s, pattern string) bool {
	for _, part := range strings.Split(pattern, "*") {
		index := strings.Index(s, part)
		if index < 0 {
			return false
		}
		s = s[index+len(part):]
	}
	return true
}
