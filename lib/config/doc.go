// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for bureau-tracer.
//
// Configuration comes from a single file named by either the
// BUREAU_TRACER_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no automatic file search. When neither
// names a file, [Load] returns [Default]: a recorder should work out of
// the box on a developer machine.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production defaults are stricter: raw
// prompt text is not written and debug transcripts are off.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${TRACER_ROOT}, and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Capture, Privacy, Storage, Logging
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [CaptureConfig.Timing] -- parsed capture durations
//
// This package depends on no other tracer packages.
package config
