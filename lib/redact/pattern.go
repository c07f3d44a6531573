// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Pattern defines one kind of sensitive content.
type Pattern struct {
	// Name identifies the pattern within an Engine. Names are unique;
	// Enable and Disable address patterns by name.
	Name string

	// Expression is the regular expression (RE2 syntax). It is always
	// matched case-insensitively and in multi-line mode.
	Expression string

	// Description is a human-readable label for summaries.
	Description string

	// Level is the pattern's sensitivity.
	Level Level

	// Replacement is the template substituted for each match. It may
	// reference capture groups as $1 or ${name}. When empty, the
	// generic token from [GenericToken] is used.
	Replacement string

	// Disabled patterns stay registered but are skipped by scans.
	Disabled bool
}

// compiledPattern is a registered pattern with its compiled expression.
type compiledPattern struct {
	Pattern
	regexp *regexp.Regexp
}

// compile validates a pattern and compiles its expression.
func compile(pattern Pattern) (*compiledPattern, error) {
	if pattern.Name == "" {
		return nil, fmt.Errorf("pattern has no name")
	}
	if pattern.Expression == "" {
		return nil, fmt.Errorf("pattern %q: empty expression", pattern.Name)
	}
	if !pattern.Level.Valid() {
		return nil, fmt.Errorf("pattern %q: invalid sensitivity level %d", pattern.Name, int(pattern.Level))
	}
	compiled, err := regexp.Compile("(?im)" + pattern.Expression)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern.Name, err)
	}
	return &compiledPattern{Pattern: pattern, regexp: compiled}, nil
}

// replacement computes the text substituted for the match described by
// submatches (as returned by FindAllStringSubmatchIndex) within text.
func (pattern *compiledPattern) replacement(text string, submatches []int) string {
	if pattern.Replacement == "" {
		return GenericToken(pattern.Name)
	}
	if !strings.Contains(pattern.Replacement, "$") {
		return pattern.Replacement
	}
	return string(pattern.regexp.ExpandString(nil, pattern.Replacement, text, submatches))
}

// GenericToken returns the fallback replacement for a pattern without a
// template: the name upper-cased, non-alphanumerics mapped to
// underscores, wrapped as "[NAME_REDACTED]".
func GenericToken(name string) string {
	var builder strings.Builder
	builder.WriteByte('[')
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(unicode.ToUpper(r))
		} else {
			builder.WriteByte('_')
		}
	}
	builder.WriteString("_REDACTED]")
	return builder.String()
}

// Match is one kept occurrence of a pattern in scanned text. Offsets
// are byte offsets into the scanned string; End is exclusive.
type Match struct {
	Pattern     string `json:"pattern"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Level       Level  `json:"level"`
	Replacement string `json:"replacement"`

	// order is the registry position of the pattern, used to make
	// overlap resolution deterministic when two candidates share both
	// offsets.
	order int
}

// PatternSummary describes a registered pattern without its expression.
type PatternSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       Level  `json:"level"`
	Enabled     bool   `json:"enabled"`
	Active      bool   `json:"active"`
}
