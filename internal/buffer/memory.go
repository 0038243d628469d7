// SPDX-License-Identifier: MPL-2.0

package buffer

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process buffer. It records every write and can be told to
// fail reads or writes, which makes it the fake of choice in tests.
type Memory struct {
	mu       sync.Mutex
	text     string
	writes   []string
	reads    int
	readErr  error
	writeErr error
	changes  chan struct{}
}

// NewMemory returns a Memory holding initial.
func NewMemory(initial string) *Memory {
	return &Memory{
		text:    initial,
		changes: make(chan struct{}, 1),
	}
}

// ReadText returns the current content, or the injected read error.
func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.readErr != nil {
		return "", m.readErr
	}
	return m.text, nil
}

// WriteText replaces the content and records the write, or returns the
// injected write error without changing anything.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return err
	}
	m.text = text
	m.writes = append(m.writes, text)
	m.mu.Unlock()

	m.signal()
	return nil
}

// Set replaces the content the way another program copying text would.
// It is not recorded as a write.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()

	m.signal()
}

// Text returns the current content without counting a read.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns every successful WriteText argument in order.
func (m *Memory) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.writes)
}

// Reads returns the number of ReadText calls so far.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// FailReads makes ReadText return err until called again with nil.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// FailWrites makes WriteText return err until called again with nil.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Changes returns a channel signalled after Set or WriteText. Signals are
// coalesced; the channel is shared by all callers and never closed.
func (m *Memory) Changes(context.Context) (<-chan struct{}, error) {
	return m.changes, nil
}

func (m *Memory) signal() {
	select {
	case m.changes <- struct{}{}:
	default:
	}
}
