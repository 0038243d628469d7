// SPDX-License-Identifier: MPL-2.0

// Package buffer provides the shared text buffer the watch loop observes.
//
// A Backend reads and writes plain text. Backends that can report changes
// without being polled also implement Notifier. The concrete implementation
// is chosen once at startup with Open:
//
//   - clipboard: the system clipboard (atotto/clipboard)
//   - file: a plain text file, with fsnotify-based change notification
//   - stub: observes nothing, for platforms without a clipboard
//   - memory: an in-process buffer, used by tests
package buffer
