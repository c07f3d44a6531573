// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"fmt"
	"io"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/tracer/lib/sealed"
	"github.com/bureau-foundation/tracer/lib/session"
)

// ShowOptions selects what [Printer.Show] prints.
type ShowOptions struct {
	// Raw prints the unmasked text recorded alongside each turn
	// instead of the masked text. Turns without raw text fall back to
	// the masked text.
	Raw bool

	// Identities open sealed raw text. Required when Raw is set and
	// the session was recorded with seal recipients.
	Identities []age.Identity

	// Markdown renders responses as markdown. Off prints them as
	// recorded.
	Markdown bool
}

// Show writes a session: a header, then every interaction in order.
func (printer *Printer) Show(output io.Writer, current session.Session, options ShowOptions) error {
	var builder strings.Builder
	printer.writeHeader(&builder, current)
	for _, interaction := range current.Interactions {
		if err := printer.writeInteraction(&builder, interaction, options); err != nil {
			return fmt.Errorf("interaction %s: %w", interaction.ID, err)
		}
	}
	_, err := io.WriteString(output, builder.String())
	return err
}

// Render returns Show's output as a string.
func (printer *Printer) Render(current session.Session, options ShowOptions) (string, error) {
	var builder strings.Builder
	if err := printer.Show(&builder, current, options); err != nil {
		return "", err
	}
	return builder.String(), nil
}

func (printer *Printer) writeHeader(builder *strings.Builder, current session.Session) {
	label := func(name string) string {
		return printer.faint(fmt.Sprintf("  %-9s", name))
	}
	status := printer.style().Foreground(printer.theme.StatusColor(current.Status)).Render(string(current.Status))

	fmt.Fprintf(builder, "%s %s\n", printer.bold("Session"), current.ID)
	fmt.Fprintf(builder, "%s %s\n", label("project"), current.ProjectPath)
	fmt.Fprintf(builder, "%s %s\n", label("command"), current.Metadata.Command)
	fmt.Fprintf(builder, "%s %s\n", label("status"), status)
	fmt.Fprintf(builder, "%s %s\n", label("started"), current.Start.UTC().Format(time.DateTime+" MST"))
	if !current.End.IsZero() {
		fmt.Fprintf(builder, "%s %s\n", label("duration"), current.End.Sub(current.Start).Round(time.Second))
	}
	if current.Metadata.Mode != "" {
		fmt.Fprintf(builder, "%s %s\n", label("privacy"), current.Metadata.Mode)
	}
	fmt.Fprintf(builder, "%s %d\n", label("turns"), len(current.Interactions))
}

func (printer *Printer) writeInteraction(builder *strings.Builder, interaction session.Interaction, options ShowOptions) error {
	prompt, response := interaction.UserPrompt, interaction.Response
	if options.Raw {
		var err error
		if prompt, err = rawOrMasked(interaction.RawUser, prompt, options.Identities); err != nil {
			return fmt.Errorf("opening raw prompt: %w", err)
		}
		if response, err = rawOrMasked(interaction.RawAssistant, response, options.Identities); err != nil {
			return fmt.Errorf("opening raw response: %w", err)
		}
	}

	title := fmt.Sprintf("── %s · %s ", interaction.ID, interaction.Timestamp.UTC().Format(time.TimeOnly))
	rule := title + strings.Repeat("─", max(printer.width-ansi.StringWidth(title), 3))
	builder.WriteString("\n")
	builder.WriteString(printer.style().Foreground(printer.theme.BorderColor).Render(rule))
	builder.WriteString("\n")

	builder.WriteString(printer.style().Foreground(printer.theme.UserForeground).Bold(true).Render("You"))
	builder.WriteString("\n")
	builder.WriteString(indent(printer.renderLines(printer.style().Foreground(printer.theme.NormalText), wrap(prompt, printer.width-2))))
	builder.WriteString("\n")

	builder.WriteString(printer.style().Foreground(printer.theme.AssistantForeground).Bold(true).Render("Claude"))
	builder.WriteString("\n")
	var body string
	switch {
	case strings.TrimSpace(response) == "":
		body = printer.faint("(no response recorded)")
	case options.Markdown:
		body = printer.RenderMarkdown(response, printer.width-2)
	default:
		body = printer.renderLines(printer.style().Foreground(printer.theme.NormalText), wrap(response, printer.width-2))
	}
	builder.WriteString(indent(body))
	builder.WriteString("\n")

	if len(interaction.Detected) > 0 {
		note := "redacted: " + strings.Join(interaction.Detected, ", ")
		builder.WriteString(indent(printer.style().Foreground(printer.theme.RedactedForeground).Render(note)))
		builder.WriteString("\n")
	}
	return nil
}

// rawOrMasked returns the raw text, opened if sealed, or the masked
// text when no raw text was recorded.
func rawOrMasked(raw, masked string, identities []age.Identity) (string, error) {
	if raw == "" {
		return masked, nil
	}
	return sealed.Open(raw, identities...)
}

func wrap(text string, width int) string {
	return ansi.Wrap(text, max(width, 10), " ,.;-+|")
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for index, line := range lines {
		if line != "" {
			lines[index] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}
