// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pmswitch/pmswitch/internal/issue"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.PreferredManager != pm.NPM {
		t.Errorf("expected default manager npm, got %s", cfg.PreferredManager)
	}
	if cfg.Monitor.Backend != BackendClipboard {
		t.Errorf("expected clipboard backend, got %s", cfg.Monitor.Backend)
	}
	if cfg.Monitor.Mode != WatchPoll {
		t.Errorf("expected poll mode, got %s", cfg.Monitor.Mode)
	}
	if cfg.Monitor.Interval() != 500*time.Millisecond {
		t.Errorf("expected 500ms interval, got %s", cfg.Monitor.Interval())
	}
	if cfg.Control.Enabled {
		t.Error("expected control API to be disabled by default")
	}
	if cfg.Control.Listen != "127.0.0.1:7717" {
		t.Errorf("expected loopback listen address, got %q", cfg.Control.Listen)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("default config should be valid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux-only")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	SetConfigDirOverride("/override")
	t.Cleanup(Reset)

	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != "/override" {
		t.Errorf("ConfigDir() with override = %s, want /override", dir)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.PreferredManager != pm.NPM || cfg.Monitor.Backend != BackendClipboard {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeConfig(t, dir, `
preferred_manager: "pnpm"
monitor: {
	backend:       "file"
	file_path:     "/tmp/buffer.txt"
	poll_interval: "250ms"
}
ui: verbose: true
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.PreferredManager != pm.PNPM {
		t.Errorf("PreferredManager = %s, want pnpm", cfg.PreferredManager)
	}
	if cfg.Monitor.Backend != BackendFile || cfg.Monitor.FilePath != "/tmp/buffer.txt" {
		t.Errorf("Monitor = %+v", cfg.Monitor)
	}
	if cfg.Monitor.Interval() != 250*time.Millisecond {
		t.Errorf("Interval() = %s, want 250ms", cfg.Monitor.Interval())
	}
	// Unset fields keep their defaults.
	if cfg.Monitor.Mode != WatchPoll {
		t.Errorf("Mode = %s, want poll", cfg.Monitor.Mode)
	}
	if cfg.Control.Listen != DefaultListenAddress {
		t.Errorf("Listen = %q, want default", cfg.Control.Listen)
	}
	if !cfg.UI.Verbose {
		t.Error("expected verbose = true")
	}
}

func TestLoad_InvalidValueRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		field   string
	}{
		{name: "unknown manager", content: `preferred_manager: "deno"`, field: "preferred_manager"},
		{name: "unknown backend", content: `monitor: backend: "x11"`, field: "monitor.backend"},
		{name: "bad duration", content: `monitor: poll_interval: "soon"`, field: "monitor.poll_interval"},
		{name: "wrong type", content: `control: enabled: "yes"`, field: "control.enabled"},
		{name: "unknown field", content: `colour: "red"`, field: "colour"},
		{name: "syntax error", content: `preferred_manager: "npm`, field: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("expected error")
			}
			if id, ok := issue.IssueOf(err); !ok || id != issue.ConfigLoadFailedId {
				t.Errorf("error should link ConfigLoadFailedId, got (%d, %v)", id, ok)
			}
			if tt.field != "" && !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error should mention %q, got: %v", tt.field, err)
			}
		})
	}
}

func TestLoad_SemanticValidation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `monitor: backend: "file"`)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("file backend without file_path should be rejected")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error should wrap ErrInvalidConfig, got: %v", err)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(path, []byte(`preferred_manager: "bun"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PreferredManager != pm.Bun {
		t.Errorf("PreferredManager = %s, want bun", cfg.PreferredManager)
	}

	_, err = NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.cue")})
	if err == nil {
		t.Fatal("expected error for missing explicit file")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("expected actionable error with suggestions, got: %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `preferred_manager: "pnpm"`)

	t.Setenv("PMSWITCH_PREFERRED_MANAGER", "yarn")
	t.Setenv("PMSWITCH_CONTROL_ENABLED", "true")

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error = %v", err)
	}
	if cfg.PreferredManager != pm.Yarn {
		t.Errorf("PreferredManager = %s, want yarn from environment", cfg.PreferredManager)
	}
	if !cfg.Control.Enabled {
		t.Error("expected control.enabled from environment")
	}

	t.Setenv("PMSWITCH_PREFERRED_MANAGER", "deno")
	if _, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir}); err == nil {
		t.Error("invalid environment value should be rejected")
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := loadWithOptions(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", ConfigFileName+"."+ConfigFileExt)

	cfg := DefaultConfig()
	cfg.PreferredManager = pm.Yarn
	cfg.Monitor.Backend = BackendFile
	cfg.Monitor.FilePath = filepath.Join(dir, "buffer.txt")
	cfg.Monitor.Mode = WatchNotify
	cfg.Control.Enabled = true
	cfg.UI.ColorScheme = ColorSchemeDark

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if *got != *cfg {
		t.Errorf("reloaded config = %+v, want %+v", *got, *cfg)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")

	if _, err := CreateDefaultConfig(path, false); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(`preferred_manager: "bun"`), 0o644); err != nil {
		t.Fatal(err)
	}

	// Without force the existing file is kept.
	if _, err := CreateDefaultConfig(path, false); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `preferred_manager: "bun"` {
		t.Errorf("existing file was overwritten: %q", data)
	}

	if _, err := CreateDefaultConfig(path, true); err != nil {
		t.Fatalf("CreateDefaultConfig(force) error = %v", err)
	}
	data, _ = os.ReadFile(path)
	if !strings.Contains(string(data), `preferred_manager: "npm"`) {
		t.Errorf("forced write should contain defaults, got:\n%s", data)
	}
}

func TestGenerateCUE_IsValidAgainstSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(DefaultConfig()))

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated CUE failed to load: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("round trip = %+v, want defaults", *cfg)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.PreferredManager = pm.PNPM

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: FormatCUE, want: `preferred_manager: "pnpm"`},
		{format: "", want: `preferred_manager: "pnpm"`},
		{format: FormatJSON, want: `"preferred_manager": "pnpm"`},
		{format: FormatTOML, want: `preferred_manager = `},
		{format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			out, err := Encode(cfg, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Encode(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if !strings.Contains(out, tt.want) || (!tt.wantErr && !strings.Contains(out, "pnpm")) {
				t.Errorf("Encode(%q) missing %q, got:\n%s", tt.format, tt.want, out)
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path, exists, err := ResolvePath(LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if exists || path != filepath.Join(dir, "config.cue") {
		t.Errorf("ResolvePath() = (%q, %v)", path, exists)
	}

	writeConfig(t, dir, `{}`)
	if _, exists, _ := ResolvePath(LoadOptions{ConfigDirPath: dir}); !exists {
		t.Error("ResolvePath() should report the file exists")
	}
}

func TestStaticProvider(t *testing.T) {
	t.Parallel()

	src := DefaultConfig()
	src.PreferredManager = pm.Bun
	p := StaticProvider{Config: src}

	got, err := p.Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got.PreferredManager = pm.Yarn
	if src.PreferredManager != pm.Bun {
		t.Error("StaticProvider should return a copy")
	}

	got, _ = StaticProvider{}.Load(context.Background(), LoadOptions{})
	if got.PreferredManager != pm.NPM {
		t.Errorf("nil Config should load defaults, got %s", got.PreferredManager)
	}
}
