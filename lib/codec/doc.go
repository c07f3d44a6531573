// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the tracer's CBOR encoding configuration.
//
// Session artifacts are JSON because people read them. Values stored
// inside the session index (detected-pattern lists, per-interaction
// match summaries) are CBOR: compact, and deterministic, so equal
// values produce equal bytes and can be compared or grouped in SQL
// without decoding.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Types implementing encoding.TextMarshaler (redact.Level) encode as
// text strings.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types encoded only here use `cbor` struct tags. Types that also
// appear in JSON output use `json` tags, which fxamacker/cbor reads as
// a fallback; never put both on one field.
package codec
