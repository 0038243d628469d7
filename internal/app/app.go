// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/pmswitch/pmswitch/internal/buffer"
	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/internal/issue"
	"github.com/pmswitch/pmswitch/internal/metrics"
	"github.com/pmswitch/pmswitch/internal/monitor"
	"github.com/pmswitch/pmswitch/internal/notify"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

type (
	// App holds the state of one pmswitch process.
	App struct {
		cfg        *config.Config
		configPath string

		prefMu    sync.RWMutex
		preferred string

		initialized atomic.Bool

		monitor *monitor.Monitor
		bus     *notify.Bus
		metrics *metrics.Metrics
		logger  *log.Logger
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by New.
	Dependencies struct {
		// Config is the loaded configuration. nil uses config.DefaultConfig.
		Config *config.Config
		// ConfigPath is where SavePreference writes. Empty means the default
		// config file location.
		ConfigPath string
		// Opener attaches to the buffer. nil opens the backend named by
		// Config.Monitor.
		Opener  buffer.Opener
		Bus     *notify.Bus
		Metrics *metrics.Metrics
		Logger  *log.Logger
		Clock   monitor.Clock
	}

	// Translation is the outcome of App.Translate.
	Translation struct {
		Result  pm.Result
		Changed bool
	}
)

// New creates an App. Monitoring is off and the preference is empty until
// Initialize runs.
func New(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Bus == nil {
		deps.Bus = notify.NewBus(deps.Metrics.EventsDropped.Inc)
	}
	if deps.Opener == nil {
		deps.Opener = buffer.NewOpener(deps.Config.Monitor.Backend, buffer.Options{
			FilePath: deps.Config.Monitor.FilePath,
			Debounce: deps.Config.Monitor.Debounce(),
			Logger:   deps.Logger.WithPrefix("buffer"),
		})
	}

	a := &App{
		cfg:        deps.Config,
		configPath: deps.ConfigPath,
		bus:        deps.Bus,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	a.monitor = monitor.New(monitor.Config{
		Opener:   deps.Opener,
		Target:   a.target,
		Mode:     deps.Config.Monitor.Mode,
		Interval: deps.Config.Monitor.Interval(),
		Bus:      deps.Bus,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger.WithPrefix("monitor"),
		Clock:    deps.Clock,
	})
	return a
}

// Initialize performs one-time setup: the preference is set to the
// configured manager, npm when none is configured. It returns true only on
// the first call.
func (a *App) Initialize() bool {
	if !a.initialized.CompareAndSwap(false, true) {
		return false
	}

	preferred := a.cfg.PreferredManager
	if preferred == "" {
		preferred = pm.NPM
	}
	a.SetPreferredManager(preferred.String())
	a.logger.Debug("initialized", "preferred", preferred)
	return true
}

// SetPreferredManager replaces the preference. Any string is accepted; a
// name that is not a known manager makes every translation a no-op.
func (a *App) SetPreferredManager(name string) {
	a.prefMu.Lock()
	a.preferred = name
	a.prefMu.Unlock()

	if !pm.Manager(name).IsKnown() {
		a.logger.Warn("unknown package manager preferred, commands will not be rewritten", "manager", name)
	}
}

// PreferredManager returns the current preference.
func (a *App) PreferredManager() string {
	a.prefMu.RLock()
	defer a.prefMu.RUnlock()
	return a.preferred
}

func (a *App) target() pm.Manager {
	return pm.Manager(a.PreferredManager())
}

// SavePreference writes the current preference to the config file. It
// fails when the preference is not a known manager.
func (a *App) SavePreference() (string, error) {
	manager, err := pm.Parse(a.PreferredManager())
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("save preferred package manager").
			WithIssue(issue.UnknownManagerId).
			WithSuggestion("Run 'pmswitch managers' to list the supported package managers").
			Wrap(err).
			BuildError()
	}

	path := a.configPath
	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
	}

	cfg := *a.cfg
	cfg.PreferredManager = manager
	if err := config.Save(&cfg, path); err != nil {
		return "", err
	}
	return path, nil
}

// ToggleMonitoring starts or stops the watch loop. Enabling while running
// restarts it. A start failure leaves monitoring off.
func (a *App) ToggleMonitoring(ctx context.Context, enabled bool) error {
	if !enabled {
		a.monitor.Stop()
		return nil
	}
	return a.monitor.Start(ctx)
}

// MonitoringState reports whether monitoring is on.
func (a *App) MonitoringState() bool {
	return a.monitor.IsRunning()
}

// Subscribe registers for translation events. See notify.Bus.Subscribe.
func (a *App) Subscribe(buffer int) (<-chan notify.Event, func()) {
	return a.bus.Subscribe(buffer)
}

// Translate rewrites command for the current preference without touching the
// buffer.
func (a *App) Translate(command string) Translation {
	return a.TranslateFor(command, a.target())
}

// TranslateFor rewrites command for target. An unknown target never rewrites.
func (a *App) TranslateFor(command string, target pm.Manager) Translation {
	if !target.IsKnown() {
		return Translation{Result: pm.Result{Original: command, Command: command, To: target}}
	}
	res, ok := pm.Explain(command, target)
	if !ok {
		return Translation{Result: pm.Result{Original: command, Command: command, To: target}}
	}
	return Translation{Result: res, Changed: true}
}

// Metrics returns the process metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close stops monitoring.
func (a *App) Close() {
	a.monitor.Stop()
}
