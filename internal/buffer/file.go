// SPDX-License-Identifier: MPL-2.0

package buffer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/internal/issue"
)

// File uses a plain text file as the shared buffer. A missing file reads as
// empty and is created by the first write.
type File struct {
	path     string
	debounce time.Duration
	logger   *log.Logger
}

// NewFile returns a file backend for path. The parent directory must exist
// because change notification watches it.
func NewFile(path string, debounce time.Duration, logger *log.Logger) (*File, error) {
	if path == "" {
		return nil, unavailable("file", "no buffer file configured")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("buffer: resolve %q: %w", path, err)
	}

	info, err := os.Stat(filepath.Dir(abs))
	if err != nil || !info.IsDir() {
		return nil, unavailable(abs, "parent directory does not exist")
	}

	if debounce <= 0 {
		debounce = config.DefaultNotifyDebounce
	}

	return &File{path: abs, debounce: debounce, logger: discardLogger(logger)}, nil
}

// Path returns the absolute path of the buffer file.
func (f *File) Path() string {
	return f.path
}

// ReadText returns the file's content.
func (f *File) ReadText() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read buffer file: %w", err)
	}
	return string(data), nil
}

// WriteText replaces the file's content with text.
func (f *File) WriteText(text string) error {
	if err := os.WriteFile(f.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write buffer file: %w", err)
	}
	return nil
}

// Changes watches the file's parent directory and signals after the file
// was created, written or replaced. Bursts of events within the debounce
// window produce one signal. The channel is closed when ctx is done or the
// watcher hits a fatal error.
func (f *File) Changes(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, f.watchError(err)
	}
	if err := fsw.Add(filepath.Dir(f.path)); err != nil {
		fsw.Close() //nolint:errcheck // best-effort cleanup
		return nil, f.watchError(err)
	}

	out := make(chan struct{}, 1)
	go f.run(ctx, fsw, out)
	return out, nil
}

func (f *File) run(ctx context.Context, fsw *fsnotify.Watcher, out chan struct{}) {
	var (
		mu     sync.Mutex
		timer  *time.Timer
		closed bool
	)

	// fire may run after the loop has exited; closed guards the send.
	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case out <- struct{}{}:
		default:
		}
	}

	defer func() {
		mu.Lock()
		closed = true
		if timer != nil {
			timer.Stop()
		}
		close(out)
		mu.Unlock()

		if err := fsw.Close(); err != nil {
			f.logger.Warn("close fsnotify watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-fsw.Events:
			if !ok {
				f.logger.Error("fsnotify event channel closed unexpectedly")
				return
			}
			if filepath.Clean(evt.Name) != f.path {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}

			mu.Lock()
			if timer == nil {
				timer = time.AfterFunc(f.debounce, fire)
			} else {
				timer.Reset(f.debounce)
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				f.logger.Error("fsnotify error channel closed unexpectedly")
				return
			}
			if isFatalFsnotifyError(err) {
				f.logger.Error("file watcher stopped", "path", f.path, "error", f.watchError(err))
				return
			}
			f.logger.Warn("fsnotify error", "path", f.path, "error", err)
		}
	}
}

func (f *File) watchError(err error) error {
	ec := issue.NewErrorContext().
		WithOperation("watch buffer file").
		WithResource(f.path).
		Wrap(err)
	if isFatalFsnotifyError(err) {
		ec.WithIssue(issue.WatchLimitReachedId).
			WithSuggestion("Use --mode poll, or raise fs.inotify.max_user_watches")
	}
	return ec.BuildError()
}
