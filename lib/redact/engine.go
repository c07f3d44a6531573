// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownPattern is returned by Enable and Disable for a name that
// is not registered.
var ErrUnknownPattern = errors.New("unknown pattern")

// ErrDuplicatePattern is returned when registering a pattern whose name
// is already taken.
var ErrDuplicatePattern = errors.New("duplicate pattern name")

// Engine scans text for sensitive patterns and masks what it finds.
// All methods are safe for concurrent use.
type Engine struct {
	mutex     sync.RWMutex
	mode      Mode
	patterns  []*compiledPattern
	byName    map[string]*compiledPattern
	allowlist map[allowlistDigest]struct{}
}

// New creates an engine in the given mode with the given patterns
// registered in order. Patterns that fail validation are skipped; their
// errors are joined into the returned error, and the engine is returned
// regardless so the valid patterns stay usable.
func New(mode Mode, patterns ...Pattern) (*Engine, error) {
	engine := &Engine{
		mode:      mode,
		byName:    make(map[string]*compiledPattern, len(patterns)),
		allowlist: make(map[allowlistDigest]struct{}),
	}
	var errs []error
	for _, pattern := range patterns {
		if err := engine.Add(pattern); err != nil {
			errs = append(errs, err)
		}
	}
	return engine, errors.Join(errs...)
}

// NewDefault creates an engine with [DefaultPatterns] registered. The
// defaults are known-good, so this never fails.
func NewDefault(mode Mode) *Engine {
	engine, err := New(mode, DefaultPatterns()...)
	if err != nil {
		panic("redact: default pattern set is invalid: " + err.Error())
	}
	return engine
}

// Add compiles and registers a pattern at the end of the registry.
func (engine *Engine) Add(pattern Pattern) error {
	compiled, err := compile(pattern)
	if err != nil {
		return err
	}

	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	if _, exists := engine.byName[pattern.Name]; exists {
		return fmt.Errorf("pattern %q: %w", pattern.Name, ErrDuplicatePattern)
	}
	engine.patterns = append(engine.patterns, compiled)
	engine.byName[pattern.Name] = compiled
	return nil
}

// Enable re-enables a disabled pattern.
func (engine *Engine) Enable(name string) error {
	return engine.setDisabled(name, false)
}

// Disable keeps a pattern registered but excludes it from scans.
func (engine *Engine) Disable(name string) error {
	return engine.setDisabled(name, true)
}

func (engine *Engine) setDisabled(name string, disabled bool) error {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()

	pattern, ok := engine.byName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}
	pattern.Disabled = disabled
	return nil
}

// SetMode changes which sensitivity levels are scanned.
func (engine *Engine) SetMode(mode Mode) {
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.mode = mode
}

// Mode returns the current operating mode.
func (engine *Engine) Mode() Mode {
	engine.mutex.RLock()
	defer engine.mutex.RUnlock()
	return engine.mode
}

// Patterns returns a summary of every registered pattern in
// registration order. Active reports whether the pattern is both
// enabled and included by the current mode.
func (engine *Engine) Patterns() []PatternSummary {
	engine.mutex.RLock()
	defer engine.mutex.RUnlock()

	summaries := make([]PatternSummary, 0, len(engine.patterns))
	for _, pattern := range engine.patterns {
		summaries = append(summaries, PatternSummary{
			Name:        pattern.Name,
			Description: pattern.Description,
			Level:       pattern.Level,
			Enabled:     !pattern.Disabled,
			Active:      !pattern.Disabled && engine.mode.Includes(pattern.Level),
		})
	}
	return summaries
}

// Scan returns the non-overlapping matches of every active pattern in
// text, ordered by start offset.
func (engine *Engine) Scan(text string) []Match {
	if text == "" {
		return nil
	}
	engine.mutex.RLock()
	defer engine.mutex.RUnlock()
	return resolveOverlaps(engine.candidatesLocked(text))
}

// Mask replaces every kept match in text with its replacement and
// returns the masked text together with the kept matches. Text with no
// matches is returned unchanged with a nil match list.
func (engine *Engine) Mask(text string) (string, []Match) {
	matches := engine.Scan(text)
	if len(matches) == 0 {
		return text, nil
	}
	return apply(text, matches), matches
}

// candidatesLocked collects every occurrence of every active pattern.
// Occurrences of one pattern never overlap each other (the regexp
// engine resumes after each match); occurrences of different patterns
// may. The caller must hold at least the read lock.
func (engine *Engine) candidatesLocked(text string) []Match {
	var candidates []Match
	for order, pattern := range engine.patterns {
		if pattern.Disabled || !engine.mode.Includes(pattern.Level) {
			continue
		}
		for _, submatches := range pattern.regexp.FindAllStringSubmatchIndex(text, -1) {
			start, end := submatches[0], submatches[1]
			if start == end {
				continue
			}
			if engine.allowedLocked(text[start:end]) {
				continue
			}
			candidates = append(candidates, Match{
				Pattern:     pattern.Name,
				Start:       start,
				End:         end,
				Level:       pattern.Level,
				Replacement: pattern.replacement(text, submatches),
				order:       order,
			})
		}
	}
	return candidates
}

// resolveOverlaps keeps the earliest-starting, longest match at each
// position and discards anything overlapping a kept match. Candidates
// with identical spans resolve to the pattern registered first.
func resolveOverlaps(candidates []Match) []Match {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Start != candidates[j].Start {
			return candidates[i].Start < candidates[j].Start
		}
		if candidates[i].End != candidates[j].End {
			return candidates[i].End > candidates[j].End
		}
		return candidates[i].order < candidates[j].order
	})

	kept := make([]Match, 0, len(candidates))
	lastEnd := 0
	for _, candidate := range candidates {
		if candidate.Start < lastEnd {
			continue
		}
		kept = append(kept, candidate)
		lastEnd = candidate.End
	}
	return kept
}

// apply substitutes matches into text. Matches must be non-overlapping
// and sorted by ascending start; they are applied from the rightmost
// back so each substitution leaves the offsets to its left intact.
func apply(text string, matches []Match) string {
	masked := text
	for index := len(matches) - 1; index >= 0; index-- {
		match := matches[index]
		masked = masked[:match.Start] + match.Replacement + masked[match.End:]
	}
	return masked
}

// Names returns the distinct pattern names in matches, in order of
// first occurrence.
func Names(matches []Match) []string {
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, match := range matches {
		if _, ok := seen[match.Pattern]; ok {
			continue
		}
		seen[match.Pattern] = struct{}{}
		names = append(names, match.Pattern)
	}
	return names
}

// String renders a match for logs without its replacement text.
func (match Match) String() string {
	return fmt.Sprintf("%s[%d:%d]/%s", match.Pattern, match.Start, match.End, strings.ToLower(match.Level.String()))
}
