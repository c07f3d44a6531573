// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"fmt"
	"strings"
)

// Level is the ordinal sensitivity of a pattern's content. Higher
// values are more confidential.
type Level int

const (
	// LevelLow covers content that is identifying but rarely harmful:
	// home directory paths that embed a username.
	LevelLow Level = iota + 1

	// LevelMedium covers personal contact data and internal network
	// addresses.
	LevelMedium

	// LevelHigh covers phone numbers and project URLs that identify
	// infrastructure.
	LevelHigh

	// LevelMaximum covers credentials: API keys, tokens, connection
	// strings with passwords, card numbers.
	LevelMaximum
)

// String returns the upper-case level name used in summaries and
// pattern files.
func (level Level) String() string {
	switch level {
	case LevelLow:
		return "LOW"
	case LevelMedium:
		return "MEDIUM"
	case LevelHigh:
		return "HIGH"
	case LevelMaximum:
		return "MAXIMUM"
	default:
		return fmt.Sprintf("Level(%d)", int(level))
	}
}

// Valid reports whether level is one of the four defined levels.
func (level Level) Valid() bool {
	return level >= LevelLow && level <= LevelMaximum
}

// ParseLevel parses a level name, case-insensitively. "critical" is
// accepted as an alias for maximum: older pattern files used a fifth
// level between high and maximum, and everything filed there is a
// credential.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low":
		return LevelLow, nil
	case "medium":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	case "maximum", "critical":
		return LevelMaximum, nil
	default:
		return 0, fmt.Errorf("unknown sensitivity level %q (want low, medium, high, or maximum)", name)
	}
}

// MarshalText implements encoding.TextMarshaler so levels serialize as
// names in JSON and YAML.
func (level Level) MarshalText() ([]byte, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("invalid sensitivity level %d", int(level))
	}
	return []byte(level.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (level *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*level = parsed
	return nil
}

// Mode selects which sensitivity levels an Engine scans for.
type Mode string

const (
	// ModeMinimal masks only LevelMaximum content.
	ModeMinimal Mode = "minimal"

	// ModeModerate masks LevelHigh and LevelMaximum content.
	ModeModerate Mode = "moderate"

	// ModeStrict masks content at every level.
	ModeStrict Mode = "strict"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case ModeMinimal:
		return ModeMinimal, nil
	case ModeModerate:
		return ModeModerate, nil
	case ModeStrict:
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("unknown privacy mode %q (want minimal, moderate, or strict)", name)
	}
}

// Includes reports whether patterns at level are scanned in this mode.
// An unrecognized mode scans everything.
func (mode Mode) Includes(level Level) bool {
	switch mode {
	case ModeMinimal:
		return level >= LevelMaximum
	case ModeModerate:
		return level >= LevelHigh
	default:
		return true
	}
}
