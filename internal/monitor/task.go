// SPDX-License-Identifier: MPL-2.0

package monitor

import (
	"context"

	"github.com/pmswitch/pmswitch/internal/buffer"
	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/internal/core/taskbase"
	"github.com/pmswitch/pmswitch/internal/metrics"
	"github.com/pmswitch/pmswitch/internal/notify"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

// task is one run of the watch loop.
type task struct {
	*taskbase.Base

	cfg     Config
	backend buffer.Backend

	// last is the most recently read content; only the loop goroutine
	// touches it.
	last string
}

func newTask(cfg Config, backend buffer.Backend) *task {
	return &task{
		Base:    taskbase.NewBase(),
		cfg:     cfg,
		backend: backend,
	}
}

func (t *task) start(ctx context.Context) error {
	if err := t.TransitionToStarting(ctx); err != nil {
		return err
	}
	t.Go(t.run)
	t.TransitionToRunning()
	return nil
}

func (t *task) run(ctx context.Context) {
	wake := t.changes(ctx)

	for {
		if ctx.Err() != nil {
			return
		}
		t.cycle()

		if wake != nil {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-wake:
				if !ok {
					// Notifiers close their channel when ctx ends.
					if ctx.Err() != nil {
						return
					}
					t.cfg.Logger.Warn("change notifications stopped, polling instead")
					wake = nil
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-t.cfg.Clock.After(t.cfg.Interval):
		}
	}
}

// changes returns the backend's change channel in notify mode, or nil when
// the loop should poll.
func (t *task) changes(ctx context.Context) <-chan struct{} {
	if t.cfg.Mode != config.WatchNotify {
		return nil
	}
	n, ok := t.backend.(buffer.Notifier)
	if !ok {
		t.cfg.Logger.Debug("backend has no change notification, polling")
		return nil
	}
	ch, err := n.Changes(ctx)
	if err != nil {
		t.cfg.Logger.Warn("change notification unavailable, polling", "error", err)
		return nil
	}
	return ch
}

// cycle reads the buffer once and rewrites it when it holds a new command.
func (t *task) cycle() {
	t.cfg.Metrics.MonitorCycles.Inc()

	text, err := t.backend.ReadText()
	if err != nil {
		t.cfg.Metrics.ObserveBufferError(metrics.OpRead)
		t.cfg.Logger.Warn("read buffer", "error", err)
		return
	}
	if text == t.last {
		return
	}
	defer func() { t.last = text }()

	if text == "" {
		return
	}

	target := t.cfg.Target()
	if !target.IsKnown() {
		return
	}

	res, ok := pm.Explain(text, target)
	if !ok {
		return
	}

	if err := t.backend.WriteText(res.Command); err != nil {
		t.cfg.Metrics.ObserveBufferError(metrics.OpWrite)
		t.cfg.Logger.Warn("write buffer", "error", err)
		return
	}

	t.cfg.Metrics.ObserveTranslation(res)
	t.cfg.Bus.Publish(notify.NewEvent(text, res, t.cfg.Clock.Now()))
	t.cfg.Logger.Debug("rewrote command", "original", res.Original, "translated", res.Command, "kind", res.Kind)
}
