// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionview

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"

	"github.com/bureau-foundation/tracer/lib/sessionindex"
)

// FieldPrompt and FieldResponse name the text a [Hit] matched in.
const (
	FieldPrompt   = "prompt"
	FieldResponse = "response"
)

// Hit is an indexed interaction that matched a query.
type Hit struct {
	Record sessionindex.Record

	// Score is fzf's match score; higher is better.
	Score int

	// Field is the text that matched, and Positions the rune indexes
	// of the matched characters within it.
	Field     string
	Positions []int
}

// fuzzyMatch runs fzf's V2 algorithm case-insensitively. It returns
// the score and matched rune positions, or ok false.
func fuzzyMatch(text string, pattern []rune, slab *util.Slab) (score int, positions []int, ok bool) {
	chars := util.ToChars([]byte(text))
	result, matched := algo.FuzzyMatchV2(false, true, true, &chars, pattern, true, slab)
	if result.Start < 0 {
		return 0, nil, false
	}
	if matched != nil {
		positions = append([]int(nil), (*matched)...)
		sort.Ints(positions)
	}
	return result.Score, positions, true
}

// Rank matches query against the prompt and response of each record
// and returns the matches, best first. A prompt match beats a response
// match of the same score; remaining ties keep the input order. An
// empty query returns every record unscored.
func Rank(query string, records []sessionindex.Record) []Hit {
	query = strings.TrimSpace(query)
	if query == "" {
		hits := make([]Hit, len(records))
		for index, record := range records {
			hits[index] = Hit{Record: record}
		}
		return hits
	}

	pattern := []rune(strings.ToLower(query))
	slab := util.MakeSlab(100*1024, 2048)
	var hits []Hit
	for _, record := range records {
		hit := Hit{Record: record, Score: -1}
		if score, positions, ok := fuzzyMatch(record.UserPrompt, pattern, slab); ok {
			hit.Score, hit.Field, hit.Positions = score, FieldPrompt, positions
		}
		if score, positions, ok := fuzzyMatch(record.Response, pattern, slab); ok && score > hit.Score {
			hit.Score, hit.Field, hit.Positions = score, FieldResponse, positions
		}
		if hit.Score >= 0 {
			hits = append(hits, hit)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

// Hits writes one entry per hit: where it was recorded, then the
// matching text trimmed to the printer width with the matched
// characters highlighted.
func (printer *Printer) Hits(output io.Writer, hits []Hit) error {
	if len(hits) == 0 {
		_, err := fmt.Fprintln(output, printer.faint("no matching interactions"))
		return err
	}
	var builder strings.Builder
	for _, hit := range hits {
		record := hit.Record
		location := fmt.Sprintf("%s #%d  %s", record.SessionID, record.Sequence, record.Timestamp.UTC().Format("2006-01-02 15:04"))
		builder.WriteString(printer.bold(location))
		builder.WriteString("\n")

		field := hit.Field
		if field == "" {
			field = FieldPrompt
		}
		text := record.UserPrompt
		if field == FieldResponse {
			text = record.Response
		}
		label := "you:    "
		if field == FieldResponse {
			label = "claude: "
		}
		builder.WriteString("  ")
		builder.WriteString(printer.faint(label))
		builder.WriteString(printer.snippet(text, hit.Positions, printer.width-2-len(label)))
		builder.WriteString("\n")
	}
	_, err := io.WriteString(output, builder.String())
	return err
}

// snippet flattens text to one line around the first matched position
// and highlights the matched runes. Line breaks become spaces one for
// one so positions still index the same runes.
func (printer *Printer) snippet(text string, positions []int, width int) string {
	runes := []rune(text)
	for index, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[index] = ' '
		}
	}

	start := 0
	if len(positions) > 0 && positions[0] > width/3 {
		start = positions[0] - width/3
	}
	matched := make(map[int]bool, len(positions))
	for _, position := range positions {
		matched[position] = true
	}
	highlight := printer.style().Foreground(printer.theme.MatchForeground).Bold(true)

	var builder strings.Builder
	if start > 0 {
		builder.WriteString("…")
	}
	for index := start; index < len(runes); index++ {
		if matched[index] {
			builder.WriteString(highlight.Render(string(runes[index])))
		} else {
			builder.WriteRune(runes[index])
		}
	}
	return ansi.Truncate(builder.String(), max(width, 10), "…")
}
