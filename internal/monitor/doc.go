// SPDX-License-Identifier: MPL-2.0

// Package monitor implements the watch loop: it observes a shared text
// buffer, rewrites package manager commands into the preferred manager's
// syntax and publishes an event for every rewrite.
//
// A Monitor owns at most one watch task. Each task is single-use and built on
// taskbase, so Start after Stop (or Start while running) creates a new one.
package monitor
