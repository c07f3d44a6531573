// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// PatternSpec is one externally supplied pattern record, as it appears
// in a pattern file:
//
//	- name: INTERNAL_HOST
//	  pattern: '[a-z0-9-]+\.corp\.example\.com'
//	  description: Internal hostname
//	  level: medium
//	  replacement: '[INTERNAL_HOST]'
type PatternSpec struct {
	Name        string `yaml:"name"        json:"name"`
	Pattern     string `yaml:"pattern"     json:"pattern"`
	Description string `yaml:"description" json:"description"`
	Level       string `yaml:"level"       json:"level"`
	Replacement string `yaml:"replacement" json:"replacement,omitempty"`
}

// ToPattern converts a spec into a Pattern, validating the level name.
// The expression is not compiled here; Engine.Add does that.
func (spec PatternSpec) ToPattern() (Pattern, error) {
	level, err := ParseLevel(spec.Level)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", spec.Name, err)
	}
	return Pattern{
		Name:        spec.Name,
		Expression:  spec.Pattern,
		Description: spec.Description,
		Level:       level,
		Replacement: spec.Replacement,
	}, nil
}

// patternFile is the on-disk document. Files may be either a bare list
// of records or an object with a "patterns" key.
type patternFile struct {
	Patterns []PatternSpec `yaml:"patterns" json:"patterns"`
}

// LoadPatternFile reads pattern records from path. The format is chosen
// by extension: .yaml and .yml are YAML; .json and .jsonc are JSON with
// comments and trailing commas permitted.
//
// Only structural problems (unreadable file, unparseable document) are
// errors here. Individual records are validated when added to an
// engine with AddSpecs, so one bad record never hides the rest.
func LoadPatternFile(path string) ([]PatternSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLPatterns(data)
	case ".json", ".jsonc":
		return parseJSONPatterns(jsonc.ToJSON(data))
	default:
		return nil, fmt.Errorf("pattern file %s: unsupported extension (want .yaml, .yml, .json, or .jsonc)", path)
	}
}

func parseYAMLPatterns(data []byte) ([]PatternSpec, error) {
	var list []PatternSpec
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var document patternFile
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parsing YAML pattern file: %w", err)
	}
	return document.Patterns, nil
}

func parseJSONPatterns(data []byte) ([]PatternSpec, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []PatternSpec
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parsing JSON pattern file: %w", err)
		}
		return list, nil
	}
	var document patternFile
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parsing JSON pattern file: %w", err)
	}
	return document.Patterns, nil
}

// AddSpecs registers each spec in order and returns one error per
// record that was skipped (bad level, bad expression, duplicate name).
// The returned slice is empty when everything registered.
func (engine *Engine) AddSpecs(specs []PatternSpec) []error {
	var errs []error
	for index, spec := range specs {
		pattern, err := spec.ToPattern()
		if err == nil {
			err = engine.Add(pattern)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", index, err))
		}
	}
	return errs
}

// LoadInto reads a pattern file and registers its records with engine.
// A structural failure is returned as the error; per-record failures
// are returned in the slice for the caller to report individually.
func LoadInto(engine *Engine, path string) ([]error, error) {
	specs, err := LoadPatternFile(path)
	if err != nil {
		return nil, err
	}
	return engine.AddSpecs(specs), nil
}
