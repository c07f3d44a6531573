// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts raw transcript text with age so unmasked
// prompts and responses can be kept on disk without being readable by
// anyone holding only the session files.
//
// A [Sealer] encrypts to one or more x25519 recipients (age1...). The
// result is an envelope string, "sealed:" followed by base64 age
// ciphertext, that fits in a JSON string field. [Open] reverses it with
// identities parsed from an age identity file; values without the
// envelope prefix pass through unchanged, so artifacts written with raw
// sealing off read the same way.
//
// Key exports:
//
//   - [GenerateKeypair] -- new age x25519 keypair
//   - [NewSealer] / [Sealer.Seal] -- encrypt to recipients
//   - [LoadIdentities] / [ParseIdentities] / [Open] -- decrypt
//   - [IsSealed] / [ParsePublicKey] -- inspection and validation
package sealed
