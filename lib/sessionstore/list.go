// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bureau-foundation/tracer/lib/session"
)

// Entry is one artifact found in a sessions directory. When the
// artifact could not be read or parsed, Err is set and Artifact is nil;
// listing continues past it.
type Entry struct {
	Path     string
	Name     string
	Archive  Archive
	Size     int64
	Modified time.Time
	Artifact *session.Artifact
	Err      error
}

// ID returns the session id, from the artifact when it parsed and from
// the file name otherwise.
func (entry Entry) ID() string {
	if entry.Artifact != nil && entry.Artifact.SessionID != "" {
		return entry.Artifact.SessionID
	}
	return strings.TrimSuffix(entry.Name, ".json"+entry.Archive.Extension())
}

// List returns every session artifact in directory, newest first.
// Session ids embed their start time, so name order is chronological.
// Temporary files and debug logs are skipped.
func List(directory string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var entries []Entry
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "debug-") {
			continue
		}
		archive, ok := archiveForName(name)
		if !ok {
			continue
		}
		entry := Entry{
			Path:    filepath.Join(directory, name),
			Name:    name,
			Archive: archive,
		}
		if info, err := dirEntry.Info(); err == nil {
			entry.Size = info.Size()
			entry.Modified = info.ModTime()
		}
		entry.Artifact, entry.Err = Load(entry.Path)
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name > entries[j].Name
	})
	return entries, nil
}

// Load reads one artifact, decompressing it according to its suffix.
func Load(path string) (*session.Artifact, error) {
	archive, ok := archiveForName(filepath.Base(path))
	if !ok {
		return nil, fmt.Errorf("%s: not a session artifact", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session artifact: %w", err)
	}
	data, err = decompress(data, archive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	var artifact session.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &artifact, nil
}

// Find locates the artifact for a session id in directory, in any of
// its archive forms. It also accepts a path to an artifact file.
func Find(directory, reference string) (string, error) {
	if _, ok := archiveForName(filepath.Base(reference)); ok {
		if _, err := os.Stat(reference); err == nil {
			return reference, nil
		}
	}
	for _, archive := range []Archive{ArchiveNone, ArchiveZstd, ArchiveLZ4} {
		candidate := filepath.Join(directory, reference+".json"+archive.Extension())
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", session.ErrUnknownSession, reference)
}
