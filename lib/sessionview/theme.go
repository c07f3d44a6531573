// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/tracer/lib/session"
)

// Theme defines the color palette for session output. All colors use
// lipgloss ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Speaker labels.
	UserForeground      lipgloss.Color
	AssistantForeground lipgloss.Color

	// Redaction placeholders and detected-pattern notes.
	RedactedForeground lipgloss.Color

	// Session status colors.
	StatusActive    lipgloss.Color
	StatusCompleted lipgloss.Color
	StatusError     lipgloss.Color
	StatusTimeout   lipgloss.Color

	// Selected row in the browser.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Characters matched by a fuzzy query.
	MatchForeground lipgloss.Color
}

// StatusColor returns the color for a session status, FaintText for
// unknown values.
func (theme Theme) StatusColor(status session.Status) lipgloss.Color {
	switch status {
	case session.StatusActive:
		return theme.StatusActive
	case session.StatusCompleted:
		return theme.StatusCompleted
	case session.StatusError:
		return theme.StatusError
	case session.StatusTimeout:
		return theme.StatusTimeout
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	UserForeground:      lipgloss.Color("75"),  // blue
	AssistantForeground: lipgloss.Color("141"), // light purple

	RedactedForeground: lipgloss.Color("208"), // orange

	StatusActive:    lipgloss.Color("220"), // amber
	StatusCompleted: lipgloss.Color("114"), // green
	StatusError:     lipgloss.Color("196"), // red
	StatusTimeout:   lipgloss.Color("208"), // orange

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	MatchForeground: lipgloss.Color("220"),
}
