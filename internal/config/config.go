// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pmswitch/pmswitch/internal/issue"
	"github.com/pmswitch/pmswitch/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "pmswitch"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. PMSWITCH_PREFERRED_MANAGER
	// or PMSWITCH_MONITOR_BACKEND.
	EnvPrefix = "PMSWITCH"

	// FormatCUE renders the config as a CUE document.
	FormatCUE = "cue"
	// FormatJSON renders the config as indented JSON.
	FormatJSON = "json"
	// FormatTOML renders the config as TOML.
	FormatTOML = "toml"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the pmswitch configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// DefaultPath returns the config file location inside ConfigDir.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// ResolvePath returns the file Load would read for opts and whether it exists.
// An explicit ConfigFilePath is returned as-is even when missing.
func ResolvePath(opts LoadOptions) (string, bool, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, fileExists(opts.ConfigFilePath), nil
	}
	dir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", false, err
	}
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	return path, fileExists(path), nil
}

// loadWithOptions layers defaults, the CUE file and PMSWITCH_* environment
// variables, in increasing precedence. A missing default file is not an error.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("preferred_manager", defaults.PreferredManager.String())
	v.SetDefault("monitor.backend", defaults.Monitor.Backend.String())
	v.SetDefault("monitor.mode", defaults.Monitor.Mode.String())
	v.SetDefault("monitor.poll_interval", defaults.Monitor.PollInterval)
	v.SetDefault("monitor.file_path", defaults.Monitor.FilePath)
	v.SetDefault("monitor.notify_debounce", defaults.Monitor.NotifyDebounce)
	v.SetDefault("control.enabled", defaults.Control.Enabled)
	v.SetDefault("control.listen", defaults.Control.Listen)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", defaults.UI.ColorScheme.String())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, exists, err := ResolvePath(opts)
	if err != nil {
		return nil, "", err
	}

	resolvedPath := ""
	switch {
	case exists:
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", loadError(path, err)
		}
		resolvedPath = path
	case opts.ConfigFilePath != "":
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(opts.ConfigFilePath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'pmswitch config init' to create the default file").
			Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so check the result again.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check PMSWITCH_* environment variables for typos").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func loadError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId).
		WithSuggestion("Check that the file contains valid CUE syntax").
		WithSuggestion("Verify the configuration values match the expected schema").
		Wrap(err).
		BuildError()
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper validates the file against #Config and merges the
// fields it sets into v. Unset fields keep their defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to path (DefaultPath
// when empty). An existing file is left alone unless force is set. It
// returns the path written or found.
func CreateDefaultConfig(path string, force bool) (string, error) {
	path, err := targetPath(path)
	if err != nil {
		return "", err
	}

	if !force && fileExists(path) {
		return path, nil
	}

	return path, writeFile(path, GenerateCUE(DefaultConfig()))
}

// Save writes cfg to path (DefaultPath when empty), replacing the file.
func Save(cfg *Config, path string) error {
	path, err := targetPath(path)
	if err != nil {
		return err
	}
	return writeFile(path, GenerateCUE(cfg))
}

func targetPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultPath()
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// pmswitch configuration file\n")
	sb.WriteString("// Run 'pmswitch config show' to see the effective values.\n\n")

	fmt.Fprintf(&sb, "preferred_manager: %q\n", cfg.PreferredManager)

	sb.WriteString("\nmonitor: {\n")
	fmt.Fprintf(&sb, "\tbackend:         %q\n", cfg.Monitor.Backend)
	fmt.Fprintf(&sb, "\tmode:            %q\n", cfg.Monitor.Mode)
	if cfg.Monitor.PollInterval != "" {
		fmt.Fprintf(&sb, "\tpoll_interval:   %q\n", cfg.Monitor.PollInterval)
	}
	if cfg.Monitor.FilePath != "" {
		fmt.Fprintf(&sb, "\tfile_path:       %q\n", cfg.Monitor.FilePath)
	}
	if cfg.Monitor.NotifyDebounce != "" {
		fmt.Fprintf(&sb, "\tnotify_debounce: %q\n", cfg.Monitor.NotifyDebounce)
	}
	sb.WriteString("}\n")

	sb.WriteString("\ncontrol: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Control.Enabled)
	if cfg.Control.Listen != "" {
		fmt.Fprintf(&sb, "\tlisten:  %q\n", cfg.Control.Listen)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

// Encode renders cfg in one of FormatCUE, FormatJSON or FormatTOML.
func Encode(cfg *Config, format string) (string, error) {
	switch format {
	case FormatCUE, "":
		return GenerateCUE(cfg), nil
	case FormatJSON:
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode config as json: %w", err)
		}
		return string(out) + "\n", nil
	case FormatTOML:
		out, err := toml.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("encode config as toml: %w", err)
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: cue, json, toml)", format)
	}
}
