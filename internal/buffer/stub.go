// SPDX-License-Identifier: MPL-2.0

package buffer

// Stub is a backend that is always empty. Monitoring with it runs but never
// observes a command.
type Stub struct{}

// ReadText always returns "".
func (Stub) ReadText() (string, error) { return "", nil }

// WriteText discards text.
func (Stub) WriteText(string) error { return nil }
