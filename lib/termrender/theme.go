// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package termrender

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sleepyleo/intern/health"
)

// Theme is the color palette used by a Renderer.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Heading    lipgloss.Color
	Link       lipgloss.Color
	Border     lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Failure lipgloss.Color

	// Prompt colors the "$" in front of executed commands.
	Prompt lipgloss.Color
}

// DefaultTheme suits a 256-color terminal with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),
	Heading:    lipgloss.Color("255"),
	Link:       lipgloss.Color("75"),
	Border:     lipgloss.Color("240"),

	Success: lipgloss.Color("114"), // green
	Warning: lipgloss.Color("220"), // amber
	Failure: lipgloss.Color("196"), // red

	Prompt: lipgloss.Color("141"),
}

// StatusColor maps a health status to Success, Warning or Failure.
func (theme Theme) StatusColor(status health.Status) lipgloss.Color {
	switch status {
	case health.StatusHealthy:
		return theme.Success
	case health.StatusWarning:
		return theme.Warning
	case health.StatusCritical:
		return theme.Failure
	}
	return theme.FaintText
}
