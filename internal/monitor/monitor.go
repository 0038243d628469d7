// SPDX-License-Identifier: MPL-2.0

package monitor

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pmswitch/pmswitch/internal/buffer"
	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/internal/metrics"
	"github.com/pmswitch/pmswitch/internal/notify"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

type (
	// Clock is the time source of the poll loop.
	Clock interface {
		Now() time.Time
		After(d time.Duration) <-chan time.Time
	}

	// TargetFunc returns the manager commands are rewritten for. It is called
	// once per observed change, so a preference change takes effect on the
	// next cycle.
	TargetFunc func() pm.Manager

	// Config holds the collaborators of a Monitor.
	Config struct {
		// Opener attaches to the buffer each time monitoring starts.
		Opener buffer.Opener
		// Target supplies the current preference.
		Target TargetFunc
		// Mode selects polling or change notification. Backends that do not
		// implement buffer.Notifier are always polled.
		Mode config.WatchMode
		// Interval is the poll tick. Zero uses config.DefaultPollInterval.
		Interval time.Duration

		Bus     *notify.Bus
		Metrics *metrics.Metrics
		Logger  *log.Logger
		Clock   Clock
	}

	// Monitor starts and stops watch tasks.
	Monitor struct {
		cfg Config

		// ctl serializes Start and Stop.
		ctl     sync.Mutex
		mu      sync.Mutex
		task    *task
		running atomic.Bool
	}

	realClock struct{}
)

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// New creates a stopped Monitor. Missing optional collaborators get defaults.
func New(cfg Config) *Monitor {
	if cfg.Target == nil {
		cfg.Target = func() pm.Manager { return pm.NPM }
	}
	if cfg.Mode == "" {
		cfg.Mode = config.WatchPoll
	}
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultPollInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Bus == nil {
		cfg.Bus = notify.NewBus(cfg.Metrics.EventsDropped.Inc)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	return &Monitor{cfg: cfg}
}

// Start attaches to the buffer and launches a watch task. A running task is
// stopped first. When the buffer cannot be attached, or ctx is already done,
// Start returns the error and monitoring stays off.
func (m *Monitor) Start(ctx context.Context) error {
	m.ctl.Lock()
	defer m.ctl.Unlock()

	m.stopLocked()

	backend, err := m.cfg.Opener()
	if err != nil {
		m.cfg.Metrics.ObserveBufferError(metrics.OpOpen)
		return err
	}

	t := newTask(m.cfg, backend)
	if err := t.start(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.task = t
	m.mu.Unlock()

	m.running.Store(true)
	m.cfg.Metrics.SetRunning(true)
	m.cfg.Logger.Info("monitoring started", "mode", m.cfg.Mode, "interval", m.cfg.Interval)
	return nil
}

// Stop cancels the watch task and returns without waiting for it. A cycle
// already in flight may still complete, including its rewrite; no later
// cycle begins. Stop is a no-op when stopped.
func (m *Monitor) Stop() {
	m.ctl.Lock()
	defer m.ctl.Unlock()

	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	m.running.Store(false)

	m.mu.Lock()
	t := m.task
	m.task = nil
	m.mu.Unlock()

	if t == nil {
		return
	}
	t.Cancel()
	m.cfg.Metrics.SetRunning(false)
	m.cfg.Logger.Info("monitoring stopped")
}

// IsRunning reports whether a watch task is live. It never blocks.
func (m *Monitor) IsRunning() bool {
	return m.running.Load()
}
