// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"strings"
	"unicode/utf8"
)

// decoder turns a byte stream into text chunk by chunk. A multi-byte
// character split across reads is held back until it completes;
// anything that is not valid UTF-8 is dropped.
type decoder struct {
	carry []byte
}

func (d *decoder) decode(chunk []byte) string {
	data := append(d.carry, chunk...)
	d.carry = nil

	// Look back at most UTFMax-1 bytes for the start of an unfinished
	// character.
	for back := 1; back < utf8.UTFMax && back <= len(data); back++ {
		position := len(data) - back
		if !utf8.RuneStart(data[position]) {
			continue
		}
		if !utf8.FullRune(data[position:]) {
			d.carry = append([]byte(nil), data[position:]...)
			data = data[:position]
		}
		break
	}
	return strings.ToValidUTF8(string(data), "")
}
