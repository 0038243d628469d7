// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by pmswitch tests: a controllable
// FakeClock for the poll loop, file helpers that fail the test on error, and
// Eventually for asserting on asynchronous state.
package testutil
