// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import "strings"

// Boundary is a detector's verdict on a line of output.
type Boundary int

const (
	// StillCapturing means the response continues.
	StillCapturing Boundary = iota
	// BoundaryReached means the program is back at its idle prompt.
	BoundaryReached
)

func (boundary Boundary) String() string {
	if boundary == BoundaryReached {
		return "boundary-reached"
	}
	return "still-capturing"
}

// BoundaryDetector decides from sanitized output whether the monitored
// program has finished responding. Detectors see one sanitized line at
// a time, including a trailing line that has no newline yet.
type BoundaryDetector interface {
	Detect(sanitized string) Boundary
}

// PromptLineDetector is implemented by detectors that can also
// recognise a line consisting of nothing but the idle prompt. Such
// lines are never recorded as part of a response.
type PromptLineDetector interface {
	BoundaryDetector
	IsPromptLine(sanitized string) bool
}

// DefaultMarker is the idle-prompt marker of the Claude CLI.
const DefaultMarker = ">"

// PromptMarker reports a boundary whenever a line contains Marker.
type PromptMarker struct {
	Marker string
}

// Detect implements [BoundaryDetector].
func (detector PromptMarker) Detect(sanitized string) Boundary {
	if detector.Marker != "" && strings.Contains(sanitized, detector.Marker) {
		return BoundaryReached
	}
	return StillCapturing
}

// IsPromptLine implements [PromptLineDetector].
func (detector PromptMarker) IsPromptLine(sanitized string) bool {
	marker := strings.TrimSpace(detector.Marker)
	return marker != "" && strings.TrimSpace(sanitized) == marker
}

// DetectorFunc adapts a function to [BoundaryDetector].
type DetectorFunc func(sanitized string) Boundary

// Detect calls f.
func (f DetectorFunc) Detect(sanitized string) Boundary { return f(sanitized) }
