// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sessionstore

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Archive selects how finished artifacts are stored.
type Archive string

const (
	// ArchiveNone keeps the plain JSON artifact.
	ArchiveNone Archive = "none"

	// ArchiveZstd compresses finished artifacts with zstd. JSON
	// transcripts compress well; this is the better ratio.
	ArchiveZstd Archive = "zstd"

	// ArchiveLZ4 compresses finished artifacts with the lz4 frame
	// format. Faster, with a lower ratio.
	ArchiveLZ4 Archive = "lz4"
)

// ParseArchive parses an archive name. The empty string means
// ArchiveNone.
func ParseArchive(name string) (Archive, error) {
	switch Archive(strings.ToLower(strings.TrimSpace(name))) {
	case "", ArchiveNone:
		return ArchiveNone, nil
	case ArchiveZstd:
		return ArchiveZstd, nil
	case ArchiveLZ4:
		return ArchiveLZ4, nil
	default:
		return "", fmt.Errorf("unknown archive format %q (want none, zstd, or lz4)", name)
	}
}

// Extension returns the file suffix appended after ".json".
func (archive Archive) Extension() string {
	switch archive {
	case ArchiveZstd:
		return ".zst"
	case ArchiveLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// archiveForName infers the archive format from a file name.
func archiveForName(name string) (Archive, bool) {
	switch {
	case strings.HasSuffix(name, ".json"):
		return ArchiveNone, true
	case strings.HasSuffix(name, ".json.zst"):
		return ArchiveZstd, true
	case strings.HasSuffix(name, ".json.lz4"):
		return ArchiveLZ4, true
	default:
		return "", false
	}
}

// zstd encoders and decoders are safe for concurrent use through
// EncodeAll and DecodeAll, so one of each serves the package.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic("sessionstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("sessionstore: zstd decoder initialization failed: " + err.Error())
	}
}

func compress(data []byte, archive Archive) ([]byte, error) {
	switch archive {
	case ArchiveNone:
		return data, nil
	case ArchiveZstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case ArchiveLZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buffer.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported archive format %q", archive)
	}
}

func decompress(data []byte, archive Archive) ([]byte, error) {
	switch archive {
	case ArchiveNone:
		return data, nil
	case ArchiveZstd:
		decoded, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return decoded, nil
	case ArchiveLZ4:
		decoded, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("unsupported archive format %q", archive)
	}
}
