// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/tracer/lib/session"
	"github.com/bureau-foundation/tracer/lib/sessionindex"
)

// Stats writes index totals, sessions by status, and how often each
// redaction pattern fired.
func (printer *Printer) Stats(output io.Writer, stats sessionindex.Stats) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "%s %s\n", printer.bold("Sessions"), humanize.Comma(int64(stats.Sessions)))

	statuses := make([]string, 0, len(stats.ByStatus))
	for status := range stats.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		styled := printer.style().Foreground(printer.theme.StatusColor(session.Status(status))).Render(fmt.Sprintf("%-10s", status))
		fmt.Fprintf(&builder, "  %s %s\n", styled, humanize.Comma(int64(stats.ByStatus[status])))
	}

	fmt.Fprintf(&builder, "%s %s\n", printer.bold("Interactions"), humanize.Comma(int64(stats.Interactions)))
	if stats.Interactions > 0 {
		share := float64(stats.Redacted) / float64(stats.Interactions) * 100
		fmt.Fprintf(&builder, "  %s %s (%s%%)\n", printer.faint(fmt.Sprintf("%-10s", "redacted")),
			humanize.Comma(int64(stats.Redacted)), humanize.FtoaWithDigits(share, 1))
	}

	if len(stats.Patterns) > 0 {
		fmt.Fprintf(&builder, "%s\n", printer.bold("Patterns"))
		width := 0
		for _, pattern := range stats.Patterns {
			width = max(width, len(pattern.Name))
		}
		highest := stats.Patterns[0].Count
		for _, pattern := range stats.Patterns {
			bar := strings.Repeat("▇", max(1, pattern.Count*20/max(highest, 1)))
			fmt.Fprintf(&builder, "  %-*s %s %s\n", width, pattern.Name,
				printer.style().Foreground(printer.theme.RedactedForeground).Render(bar),
				humanize.Comma(int64(pattern.Count)))
		}
	}
	_, err := io.WriteString(output, builder.String())
	return err
}
