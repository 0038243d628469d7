// SPDX-License-Identifier: MPL-2.0

package buffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/internal/issue"
)

// ErrUnavailable is returned when a backend cannot be attached at all.
var ErrUnavailable = errors.New("buffer backend unavailable")

type (
	// Backend is the capability the watch loop needs from a shared text buffer.
	Backend interface {
		ReadText() (string, error)
		WriteText(text string) error
	}

	// Notifier is implemented by backends that can signal content changes.
	// The returned channel receives a value after one or more changes and is
	// closed when notifications stop, either because ctx is done or because
	// the backend can no longer observe changes.
	Notifier interface {
		Changes(ctx context.Context) (<-chan struct{}, error)
	}

	// Opener attaches to a backend. It is called each time monitoring starts.
	Opener func() (Backend, error)

	// Options configures Open.
	Options struct {
		// FilePath is the buffer file of the file backend.
		FilePath string
		// Debounce coalesces bursts of file events. Zero uses
		// config.DefaultNotifyDebounce.
		Debounce time.Duration
		// Memory is returned by the memory backend. A nil value creates an
		// empty buffer on every Open.
		Memory *Memory
		// Logger receives backend diagnostics. nil discards them.
		Logger *log.Logger
	}
)

// Open attaches to the backend of the given kind.
func Open(kind config.BackendKind, opts Options) (Backend, error) {
	switch kind {
	case config.BackendClipboard:
		return NewClipboard()
	case config.BackendFile:
		return NewFile(opts.FilePath, opts.Debounce, opts.Logger)
	case config.BackendStub:
		return Stub{}, nil
	case config.BackendMemory:
		if opts.Memory != nil {
			return opts.Memory, nil
		}
		return NewMemory(""), nil
	default:
		return nil, &config.InvalidBackendKindError{Value: kind}
	}
}

// NewOpener returns an Opener that calls Open with the given arguments.
func NewOpener(kind config.BackendKind, opts Options) Opener {
	return func() (Backend, error) {
		return Open(kind, opts)
	}
}

// unavailable wraps ErrUnavailable in an actionable error pointing at the
// backend-unavailable catalog entry.
func unavailable(resource, reason string) error {
	return issue.NewErrorContext().
		WithOperation("open buffer backend").
		WithResource(resource).
		WithIssue(issue.BackendUnavailableId).
		WithSuggestion("Use --backend file --file <path> on machines without a clipboard").
		Wrap(fmt.Errorf("%w: %s", ErrUnavailable, reason)).
		BuildError()
}

func discardLogger(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard)
}
