// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/bureau-foundation/tracer/lib/sessionstore"
)

// List writes one row per stored session, in the order given. now is
// the reference for relative start times. Unreadable entries are
// listed with their error.
func (printer *Printer) List(output io.Writer, entries []sessionstore.Entry, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(output, printer.faint("no sessions recorded"))
		return err
	}

	header := []string{"SESSION", "STARTED", "STATUS", "TURNS", "SIZE", "COMMAND"}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Artifact == nil {
			reason := "unreadable"
			if entry.Err != nil {
				reason = "unreadable: " + entry.Err.Error()
			}
			rows = append(rows, []string{entry.ID(), "-", reason, "-", humanize.Bytes(uint64(entry.Size)), "-"})
			continue
		}
		artifact := entry.Artifact
		rows = append(rows, []string{
			entry.ID(),
			humanize.RelTime(artifact.StartTime, now, "ago", "from now"),
			string(artifact.Status),
			fmt.Sprint(artifact.TotalInteractions),
			humanize.Bytes(uint64(entry.Size)),
			artifact.Metadata.Command,
		})
	}

	widths := make([]int, len(header))
	for _, row := range append([][]string{header}, rows...) {
		for column, cell := range row {
			widths[column] = max(widths[column], ansi.StringWidth(cell))
		}
	}

	var builder strings.Builder
	builder.WriteString(printer.bold(formatRow(header, widths)))
	builder.WriteString("\n")
	for index, row := range rows {
		line := formatRow(row, widths)
		if artifact := entries[index].Artifact; artifact != nil {
			// Color only the status cell; padding stays outside the
			// styled span so columns line up.
			status := string(artifact.Status)
			styled := printer.style().Foreground(printer.theme.StatusColor(artifact.Status)).Render(status)
			offset := 0
			for column := 0; column < 2; column++ {
				offset += widths[column] + 2
			}
			line = line[:offset] + styled + line[offset+len(status):]
		} else {
			line = printer.faint(line)
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	_, err := io.WriteString(output, builder.String())
	return err
}

// formatRow pads every cell but the last to its column width.
func formatRow(cells []string, widths []int) string {
	var builder strings.Builder
	for column, cell := range cells {
		builder.WriteString(cell)
		if column < len(cells)-1 {
			builder.WriteString(strings.Repeat(" ", widths[column]-ansi.StringWidth(cell)+2))
		}
	}
	return strings.TrimRight(builder.String(), " ")
}
