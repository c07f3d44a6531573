// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

// Assessment summarizes how sensitive a piece of text is.
type Assessment struct {
	// Level is the highest level among detected patterns, or "SAFE"
	// when nothing was detected.
	Level string `json:"level"`

	// Score is the numeric value of the highest level (1-4), 0 when
	// nothing was detected.
	Score int `json:"score"`

	// RequiresApproval is true when the highest level is HIGH or above:
	// content an operator should look at before sharing.
	RequiresApproval bool `json:"requires_approval"`

	// Detected lists the names of patterns found, in order of first
	// occurrence.
	Detected []string `json:"detected_patterns"`

	// Matches is the number of kept matches.
	Matches int `json:"matches"`
}

// Analyze scans text and reports its overall sensitivity under the
// engine's current mode.
func (engine *Engine) Analyze(text string) Assessment {
	matches := engine.Scan(text)
	if len(matches) == 0 {
		return Assessment{Level: "SAFE", Detected: []string{}}
	}

	highest := LevelLow
	for _, match := range matches {
		if match.Level > highest {
			highest = match.Level
		}
	}
	return Assessment{
		Level:            highest.String(),
		Score:            int(highest),
		RequiresApproval: highest >= LevelHigh,
		Detected:         Names(matches),
		Matches:          len(matches),
	}
}
