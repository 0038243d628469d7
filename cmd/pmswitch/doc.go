// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for pmswitch.
//
// Every command is built by a constructor that receives the CLI composition
// root, so tests can run the command tree with in-memory configuration,
// buffers and output writers.
package cmd
