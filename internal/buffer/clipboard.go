// SPDX-License-Identifier: MPL-2.0

package buffer

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard is the system clipboard.
type Clipboard struct{}

// NewClipboard returns the system clipboard backend, or an error wrapping
// ErrUnavailable when no clipboard utility is present (for example a Linux
// machine without xclip, xsel or wl-clipboard).
func NewClipboard() (*Clipboard, error) {
	if clipboard.Unsupported {
		return nil, unavailable("clipboard", "no clipboard utility found")
	}
	return &Clipboard{}, nil
}

// ReadText returns the clipboard's text content.
func (*Clipboard) ReadText() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}

// WriteText replaces the clipboard's content with text.
func (*Clipboard) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
