// SPDX-License-Identifier: MPL-2.0

// Package control serves the HTTP control API of a running pmswitch
// process: preference, monitoring toggle, one-shot translation, a
// Server-Sent Events stream of translation events, metrics and a health
// check. The server binds to loopback by default and has no authentication.
package control
