// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrSessionExists is returned by Registry.Add for an id already present.
var ErrSessionExists = errors.New("session already registered")

// ErrUnknownSession is returned for an id that is not registered.
var ErrUnknownSession = errors.New("unknown session")

// Registry is the table of active sessions, keyed by session id. The
// value type is whatever the owner tracks per session (a running proxy,
// a cancel function). Safe for concurrent use.
type Registry[T any] struct {
	mutex   sync.Mutex
	entries map[string]T
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Add registers value under id.
func (registry *Registry[T]) Add(id string, value T) error {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	if _, exists := registry.entries[id]; exists {
		return fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	registry.entries[id] = value
	return nil
}

// Remove unregisters id and returns its value.
func (registry *Registry[T]) Remove(id string) (T, error) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	value, exists := registry.entries[id]
	if !exists {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	delete(registry.entries, id)
	return value, nil
}

// Get returns the value registered under id.
func (registry *Registry[T]) Get(id string) (T, bool) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	value, exists := registry.entries[id]
	return value, exists
}

// IDs returns the registered ids in sorted order.
func (registry *Registry[T]) IDs() []string {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	ids := make([]string, 0, len(registry.entries))
	for id := range registry.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered sessions.
func (registry *Registry[T]) Len() int {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	return len(registry.entries)
}
