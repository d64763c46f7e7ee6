// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LogFlags adds --log-format and --verbose to a command's params.
type LogFlags struct {
	LogFormat string `flag:"log-format" desc:"log format: auto, text or json" default:"auto"`
	Verbose   bool   `flag:"verbose,v" desc:"enable debug logging"`
}

// NewLogger builds a structured logger writing to w. The auto format
// is text when w is a terminal and JSON otherwise.
func (f LogFlags) NewLogger(w io.Writer) (*slog.Logger, error) {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if f.Verbose {
		options.Level = slog.LevelDebug
	}

	format := f.LogFormat
	if format == "" || format == "auto" {
		format = "json"
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			format = "text"
		}
	}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	}
	return nil, fmt.Errorf("unknown --log-format %q (want auto, text or json)", f.LogFormat)
}
