// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/pmswitch/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/pmswitch/config.cue on macOS, %APPDATA%\pmswitch\config.cue
// on Windows). It covers the preferred package manager, the watch loop and its buffer
// backend, the HTTP control API and UI settings. PMSWITCH_* environment variables
// override file values.
//
// Files are validated against an embedded CUE schema (config_schema.cue) before
// being merged over the defaults.
package config
