// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// decorationGlyphs are the box-drawing and bullet runes the monitored
// CLI uses for frames and list markers.
const decorationGlyphs = "╭─╮│╰╯┐└┘├┤┬┴┼⎿⧉✻●•▸▹⬤"

var glyphReplacer = func() *strings.Replacer {
	var pairs []string
	for _, r := range decorationGlyphs {
		pairs = append(pairs, string(r), "")
	}
	return strings.NewReplacer(pairs...)
}()

// boilerplate matches UI chrome removed from every line. Each
// expression is anchored to the remainder of its line.
var boilerplate = []*regexp.Regexp{
	regexp.MustCompile(`Welcome to Claude Code!`),
	regexp.MustCompile(`/help for help.*`),
	regexp.MustCompile(`cwd:.*`),
	regexp.MustCompile(`\(\d+s.*tokens.*\)`),
	regexp.MustCompile(`Selected \d+ lines from.*`),
}

var horizontalSpace = regexp.MustCompile(`[ \t]+`)

// Sanitize returns text with terminal control sequences, decoration,
// and boilerplate removed. Lines are separated by "\n"; the result has
// no leading, trailing, or blank lines.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	text = ansi.Strip(text)
	text = normalizeNewlines(text)
	text = StripControl(text)
	text = glyphReplacer.Replace(text)

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = cleanLine(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Lines is Sanitize split into its lines. An input that sanitizes to
// nothing yields nil.
func Lines(text string) []string {
	sanitized := Sanitize(text)
	if sanitized == "" {
		return nil
	}
	return strings.Split(sanitized, "\n")
}

// cleanLine collapses whitespace and removes boilerplate until the line
// stops changing. Removing one fragment can join two halves of another,
// so a single pass is not enough for idempotence.
func cleanLine(line string) string {
	for {
		next := strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		for _, expression := range boilerplate {
			next = expression.ReplaceAllString(next, "")
		}
		next = strings.TrimSpace(horizontalSpace.ReplaceAllString(next, " "))
		if next == line {
			return line
		}
		line = next
	}
}

// normalizeNewlines maps "\r\n" and lone "\r" to "\n".
func normalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// StripControl removes control characters other than newline and tab.
// Invalid UTF-8 is replaced with U+FFFD by the range loop.
func StripControl(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// Operator line-editing keys.
const (
	keyBackspace = '\b'
	keyDelete    = '\x7f'
	keyKillLine  = '\x15' // Ctrl-U
	keyKillWord  = '\x17' // Ctrl-W
)

// CleanInput reconstructs the text an operator submitted from the raw
// keystrokes. Backspace and DEL remove the previous rune, Ctrl-U clears
// everything typed so far, and Ctrl-W removes the previous word. Escape
// sequences (arrow keys, bracketed-paste markers) and remaining control
// characters are dropped. The result is trimmed.
func CleanInput(text string) string {
	var buffer []rune
	start := 0
	flush := func(end int) {
		if end > start {
			buffer = append(buffer, []rune(StripControl(ansi.Strip(text[start:end])))...)
		}
	}
	for index, r := range text {
		switch r {
		case keyBackspace, keyDelete:
			flush(index)
			if len(buffer) > 0 {
				buffer = buffer[:len(buffer)-1]
			}
		case keyKillLine:
			flush(index)
			buffer = buffer[:0]
		case keyKillWord:
			flush(index)
			buffer = killWord(buffer)
		default:
			continue
		}
		start = index + 1
	}
	flush(len(text))
	return strings.TrimSpace(strings.ReplaceAll(string(buffer), "\n", " "))
}

// killWord removes trailing spaces and then the word before them.
func killWord(buffer []rune) []rune {
	end := len(buffer)
	for end > 0 && unicode.IsSpace(buffer[end-1]) {
		end--
	}
	for end > 0 && !unicode.IsSpace(buffer[end-1]) {
		end--
	}
	return buffer[:end]
}
