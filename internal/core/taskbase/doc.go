// SPDX-License-Identifier: MPL-2.0

// Package taskbase provides the lifecycle state machine shared by pmswitch's
// long-running components: the watch loop task and the HTTP control server.
//
// A Base is single-use. It tracks Created -> Starting -> Running ->
// Stopping -> Stopped (or Failed), owns the cancellation context handed to
// worker goroutines, and waits for them on shutdown.
package taskbase
