// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package redact

import (
	"strings"

	"github.com/zeebo/blake3"
)

// allowlistKey is the BLAKE3 key for allowlist digests: the ASCII
// domain name zero-padded to 32 bytes. Digests are only ever compared
// within one process, so the key exists for domain separation, not
// secrecy.
var allowlistKey = [32]byte{
	'b', 'u', 'r', 'e', 'a', 'u', '.', 't', 'r', 'a', 'c', 'e', 'r', '.',
	'a', 'l', 'l', 'o', 'w', 'l', 'i', 's', 't',
}

// allowlistDigest is the keyed hash of an allowlisted value.
type allowlistDigest [32]byte

// digestValue hashes a matched value. Values are lower-cased first
// because patterns match case-insensitively: an allowlisted address
// must stay allowlisted however the operator capitalizes it.
func digestValue(value string) allowlistDigest {
	hasher, err := blake3.NewKeyed(allowlistKey[:])
	if err != nil {
		// Only returned for a key of the wrong length.
		panic("redact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(strings.ToLower(value)))
	var digest allowlistDigest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// Allow adds value to the allowlist. A match whose text equals an
// allowlisted value (case-insensitively) is dropped during scanning and
// left unmasked. Only the digest is retained, so the engine never holds
// the allowlisted plaintext.
func (engine *Engine) Allow(value string) {
	if value == "" {
		return
	}
	digest := digestValue(value)
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	engine.allowlist[digest] = struct{}{}
}

// Allowed reports whether value is on the allowlist.
func (engine *Engine) Allowed(value string) bool {
	engine.mutex.RLock()
	defer engine.mutex.RUnlock()
	return engine.allowedLocked(value)
}

func (engine *Engine) allowedLocked(value string) bool {
	if len(engine.allowlist) == 0 {
		return false
	}
	_, ok := engine.allowlist[digestValue(value)]
	return ok
}
