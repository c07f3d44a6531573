// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"os"
	"sync"
)

// DefaultTranscriptSize is the default transcript capacity in bytes.
// 1 MB holds the tail of a long session's screen output, which is what
// matters when diagnosing a missed turn boundary.
const DefaultTranscriptSize = 1024 * 1024

// Transcript keeps the most recent raw bytes the monitored program
// wrote, escape sequences included, so a debug session can be replayed
// with cat. When full, new writes overwrite the oldest data.
//
// All methods are safe for concurrent use.
type Transcript struct {
	mutex    sync.Mutex
	data     []byte
	capacity int
	// writePosition is the next position to write within the circular
	// buffer (0 to capacity-1).
	writePosition int
	// totalWritten is the number of bytes ever written. The retained
	// bytes are the last min(totalWritten, capacity) of them.
	totalWritten uint64
}

// NewTranscript creates a transcript with the given capacity in bytes.
func NewTranscript(capacity int) *Transcript {
	if capacity <= 0 {
		capacity = DefaultTranscriptSize
	}
	return &Transcript{
		data:     make([]byte, capacity),
		capacity: capacity,
	}
}

// Write appends data, overwriting the oldest bytes if the transcript is
// full. It never fails.
func (transcript *Transcript) Write(data []byte) (int, error) {
	transcript.mutex.Lock()
	defer transcript.mutex.Unlock()

	// Only the tail of an oversized write can survive.
	written := len(data)
	if len(data) > transcript.capacity {
		skipped := len(data) - transcript.capacity
		transcript.writePosition = (transcript.writePosition + skipped) % transcript.capacity
		transcript.totalWritten += uint64(skipped)
		data = data[skipped:]
	}

	for offset := 0; offset < len(data); {
		available := transcript.capacity - transcript.writePosition
		copyLength := min(len(data)-offset, available)
		copy(transcript.data[transcript.writePosition:transcript.writePosition+copyLength], data[offset:offset+copyLength])
		transcript.writePosition = (transcript.writePosition + copyLength) % transcript.capacity
		offset += copyLength
	}
	transcript.totalWritten += uint64(len(data))
	return written, nil
}

// Bytes returns the retained bytes, oldest first.
func (transcript *Transcript) Bytes() []byte {
	transcript.mutex.Lock()
	defer transcript.mutex.Unlock()

	stored := transcript.storedLocked()
	if stored == 0 {
		return nil
	}
	result := make([]byte, stored)
	start := (transcript.writePosition - stored + transcript.capacity) % transcript.capacity
	firstLength := copy(result, transcript.data[start:min(start+stored, transcript.capacity)])
	copy(result[firstLength:], transcript.data[:stored-firstLength])
	return result
}

// Dropped returns how many bytes have been overwritten.
func (transcript *Transcript) Dropped() uint64 {
	transcript.mutex.Lock()
	defer transcript.mutex.Unlock()
	return transcript.totalWritten - uint64(transcript.storedLocked())
}

func (transcript *Transcript) storedLocked() int {
	if transcript.totalWritten < uint64(transcript.capacity) {
		return int(transcript.totalWritten)
	}
	return transcript.capacity
}

// WriteFile saves the retained bytes to path, readable only by the
// owner.
func (transcript *Transcript) WriteFile(path string) error {
	if err := os.WriteFile(path, transcript.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}
