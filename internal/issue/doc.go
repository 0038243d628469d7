// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. When an error maps to a known failure class it also
// carries an Id into the Markdown issue catalog, which the CLI renders with
// glamour below the short error line.
package issue
