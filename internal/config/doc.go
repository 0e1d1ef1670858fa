// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/lever/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/lever/config.cue on macOS, %APPDATA%\lever\config.cue
// on Windows), then from ./config.cue, and otherwise falls back to defaults. Environment
// variables prefixed with LEVER_ override file values (LEVER_BUILD_FILE, LEVER_UI_VERBOSE).
//
// Files are validated against the embedded CUE schema (config_schema.cue) before they
// reach Viper, so type errors are reported with their CUE path.
package config
