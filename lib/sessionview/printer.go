// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// DefaultWidth is the wrap width when none is configured.
const DefaultWidth = 100

// Options configures a [Printer].
type Options struct {
	// Theme defaults to DefaultTheme.
	Theme *Theme

	// Width is the wrap width. Zero means DefaultWidth.
	Width int

	// Color enables ANSI styling. Callers decide from the output
	// device; off renders plain text.
	Color bool
}

// Printer renders sessions, listings, and statistics.
type Printer struct {
	theme    Theme
	width    int
	color    bool
	renderer *lipgloss.Renderer
}

// NewPrinter returns a printer for output. The color profile is fixed
// at construction: lipgloss would otherwise re-detect it from the
// environment on every render.
func NewPrinter(output io.Writer, options Options) *Printer {
	printer := &Printer{
		theme: DefaultTheme,
		width: options.Width,
		color: options.Color,
	}
	if options.Theme != nil {
		printer.theme = *options.Theme
	}
	if printer.width <= 0 {
		printer.width = DefaultWidth
	}
	profile := termenv.Ascii
	if options.Color {
		profile = termenv.ANSI256
	}
	printer.renderer = lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	printer.renderer.SetColorProfile(profile)
	return printer
}

// Width returns the wrap width.
func (printer *Printer) Width() int {
	return printer.width
}

func (printer *Printer) style() lipgloss.Style {
	return printer.renderer.NewStyle()
}

func (printer *Printer) faint(text string) string {
	return printer.renderLines(printer.style().Foreground(printer.theme.FaintText), text)
}

func (printer *Printer) bold(text string) string {
	return printer.style().Foreground(printer.theme.HeaderForeground).Bold(true).Render(text)
}

// placeholderPattern matches the tokens the redaction engine writes,
// such as [EMAIL_REDACTED] and [PHONE_US].
var placeholderPattern = regexp.MustCompile(`\[[A-Z][A-Z0-9_]*\]`)

// renderText styles content, giving redaction tokens their own color
// so masked spans stand out.
func (printer *Printer) renderText(style lipgloss.Style, content string) string {
	if !printer.color {
		return style.Render(content)
	}
	redacted := style.Foreground(printer.theme.RedactedForeground)
	var output strings.Builder
	last := 0
	for _, location := range placeholderPattern.FindAllStringIndex(content, -1) {
		if location[0] > last {
			output.WriteString(style.Render(content[last:location[0]]))
		}
		output.WriteString(redacted.Render(content[location[0]:location[1]]))
		last = location[1]
	}
	if last < len(content) {
		output.WriteString(style.Render(content[last:]))
	}
	return output.String()
}

// renderLines styles each line separately. lipgloss pads a multi-line
// block to its widest line, which would leave trailing spaces.
func (printer *Printer) renderLines(style lipgloss.Style, content string) string {
	lines := strings.Split(content, "\n")
	for index, line := range lines {
		lines[index] = printer.renderText(style, line)
	}
	return strings.Join(lines, "\n")
}
