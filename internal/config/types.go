// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pmswitch/pmswitch/pkg/pm"
)

const (
	// BackendClipboard uses the system clipboard.
	BackendClipboard BackendKind = "clipboard"
	// BackendFile uses a plain text file as the shared buffer.
	BackendFile BackendKind = "file"
	// BackendStub observes nothing; reads are empty and writes are discarded.
	BackendStub BackendKind = "stub"
	// BackendMemory keeps the buffer in process memory.
	BackendMemory BackendKind = "memory"

	// WatchPoll reads the buffer on a fixed interval.
	WatchPoll WatchMode = "poll"
	// WatchNotify waits for change notifications from the backend and falls
	// back to polling when the backend cannot provide them.
	WatchNotify WatchMode = "notify"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultPollInterval is the poll-mode tick.
	DefaultPollInterval = 500 * time.Millisecond
	// DefaultNotifyDebounce coalesces bursts of file events.
	DefaultNotifyDebounce = 100 * time.Millisecond
	// DefaultListenAddress is the loopback address of the control API.
	DefaultListenAddress = "127.0.0.1:7717"
)

var (
	// ErrInvalidBackendKind is returned when a BackendKind value is not recognized.
	ErrInvalidBackendKind = errors.New("invalid buffer backend")
	// ErrInvalidWatchMode is returned when a WatchMode value is not recognized.
	ErrInvalidWatchMode = errors.New("invalid watch mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDuration is returned when a duration field does not parse or is not positive.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidMonitorConfig is the sentinel error wrapped by InvalidMonitorConfigError.
	ErrInvalidMonitorConfig = errors.New("invalid monitor config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// BackendKind selects the buffer implementation.
	BackendKind string

	// InvalidBackendKindError is returned when a BackendKind value is not recognized.
	// It wraps ErrInvalidBackendKind for errors.Is() compatibility.
	InvalidBackendKindError struct {
		Value BackendKind
	}

	// WatchMode selects how the watch loop waits between reads.
	WatchMode string

	// InvalidWatchModeError is returned when a WatchMode value is not recognized.
	// It wraps ErrInvalidWatchMode for errors.Is() compatibility.
	InvalidWatchModeError struct {
		Value WatchMode
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidDurationError reports a duration field that does not parse.
	InvalidDurationError struct {
		Field string
		Value string
	}

	// InvalidMonitorConfigError collects field-level errors of MonitorConfig.
	InvalidMonitorConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// PreferredManager is the target of every rewrite.
		PreferredManager pm.Manager `json:"preferred_manager" toml:"preferred_manager" mapstructure:"preferred_manager"`
		// Monitor configures the watch loop and its buffer.
		Monitor MonitorConfig `json:"monitor" toml:"monitor" mapstructure:"monitor"`
		// Control configures the HTTP control API.
		Control ControlConfig `json:"control" toml:"control" mapstructure:"control"`
		// UI configures the user interface
		UI UIConfig `json:"ui" toml:"ui" mapstructure:"ui"`
	}

	// MonitorConfig configures the watch loop.
	MonitorConfig struct {
		Backend BackendKind `json:"backend" toml:"backend" mapstructure:"backend"`
		Mode    WatchMode   `json:"mode" toml:"mode" mapstructure:"mode"`
		// PollInterval is a Go duration string, e.g. "500ms".
		PollInterval string `json:"poll_interval" toml:"poll_interval" mapstructure:"poll_interval"`
		// FilePath is the buffer file used by the file backend.
		FilePath string `json:"file_path" toml:"file_path" mapstructure:"file_path"`
		// NotifyDebounce is a Go duration string.
		NotifyDebounce string `json:"notify_debounce" toml:"notify_debounce" mapstructure:"notify_debounce"`
	}

	// ControlConfig configures the HTTP control API.
	ControlConfig struct {
		Enabled bool   `json:"enabled" toml:"enabled" mapstructure:"enabled"`
		Listen  string `json:"listen" toml:"listen" mapstructure:"listen"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables debug logging and error chains
		Verbose bool `json:"verbose" toml:"verbose" mapstructure:"verbose"`
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" toml:"color_scheme" mapstructure:"color_scheme"`
	}
)

// Error implements the error interface for InvalidBackendKindError.
func (e *InvalidBackendKindError) Error() string {
	return fmt.Sprintf("invalid buffer backend %q (valid: clipboard, file, stub, memory)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidBackendKindError) Unwrap() error { return ErrInvalidBackendKind }

// String returns the string representation of the BackendKind.
func (b BackendKind) String() string { return string(b) }

// IsValid returns whether the BackendKind is one of the defined backends,
// and a list of validation errors if it is not.
func (b BackendKind) IsValid() (bool, []error) {
	switch b {
	case BackendClipboard, BackendFile, BackendStub, BackendMemory:
		return true, nil
	default:
		return false, []error{&InvalidBackendKindError{Value: b}}
	}
}

// Error implements the error interface for InvalidWatchModeError.
func (e *InvalidWatchModeError) Error() string {
	return fmt.Sprintf("invalid watch mode %q (valid: poll, notify)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidWatchModeError) Unwrap() error { return ErrInvalidWatchMode }

// String returns the string representation of the WatchMode.
func (m WatchMode) String() string { return string(m) }

// IsValid returns whether the WatchMode is poll or notify.
func (m WatchMode) IsValid() (bool, []error) {
	switch m {
	case WatchPoll, WatchNotify:
		return true, nil
	default:
		return false, []error{&InvalidWatchModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// Error implements the error interface for InvalidDurationError.
func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: want a positive Go duration such as \"500ms\"", e.Field, e.Value)
}

// Unwrap returns ErrInvalidDuration for errors.Is() compatibility.
func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// Error implements the error interface for InvalidMonitorConfigError.
func (e *InvalidMonitorConfigError) Error() string {
	return fmt.Sprintf("invalid monitor config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidMonitorConfig for errors.Is() compatibility.
func (e *InvalidMonitorConfigError) Unwrap() error { return ErrInvalidMonitorConfig }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s", joinErrors(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Interval returns PollInterval parsed, or DefaultPollInterval when unset.
func (c MonitorConfig) Interval() time.Duration {
	return parseDurationOr(c.PollInterval, DefaultPollInterval)
}

// Debounce returns NotifyDebounce parsed, or DefaultNotifyDebounce when unset.
func (c MonitorConfig) Debounce() time.Duration {
	return parseDurationOr(c.NotifyDebounce, DefaultNotifyDebounce)
}

// IsValid checks the enum fields and that both durations parse. FilePath is
// only required when the file backend is selected.
func (c MonitorConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Backend.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Mode.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if err := checkDuration("monitor.poll_interval", c.PollInterval); err != nil {
		errs = append(errs, err)
	}
	if err := checkDuration("monitor.notify_debounce", c.NotifyDebounce); err != nil {
		errs = append(errs, err)
	}
	if c.Backend == BackendFile && strings.TrimSpace(c.FilePath) == "" {
		errs = append(errs, errors.New("monitor.file_path is required for the file backend"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidMonitorConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// IsValid returns whether the Config has valid fields. The preferred manager
// must be one of the known managers.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if err := c.PreferredManager.Validate(); err != nil {
		errs = append(errs, err)
	}
	if valid, fieldErrs := c.Monitor.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Control.Enabled && strings.TrimSpace(c.Control.Listen) == "" {
		errs = append(errs, errors.New("control.listen is required when control.enabled is true"))
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		PreferredManager: pm.NPM,
		Monitor: MonitorConfig{
			Backend:        BackendClipboard,
			Mode:           WatchPoll,
			PollInterval:   DefaultPollInterval.String(),
			NotifyDebounce: DefaultNotifyDebounce.String(),
		},
		Control: ControlConfig{
			Enabled: false,
			Listen:  DefaultListenAddress,
		},
		UI: UIConfig{
			Verbose:     false,
			ColorScheme: ColorSchemeAuto,
		},
	}
}

func checkDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return &InvalidDurationError{Field: field, Value: value}
	}
	return nil
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func joinErrors(errs []error) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}
