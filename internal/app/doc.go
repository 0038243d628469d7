// SPDX-License-Identifier: MPL-2.0

// Package app is the composition root of pmswitch. An App owns the
// preference, the watch loop, the event bus and the metrics of one process,
// and is the single control surface the CLI, the HTTP API and the MCP
// adapter talk to.
package app
