// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "config.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error is wrapped with file path", func(t *testing.T) {
		t.Parallel()

		orig := errors.New("disk on fire")
		err := FormatError(orig, "config.cue")
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, orig) {
			t.Errorf("error should wrap the original, got: %v", err)
		}
		if !strings.HasPrefix(err.Error(), "config.cue: ") {
			t.Errorf("error should start with file path, got: %v", err)
		}
	})

	t.Run("schema violation carries field path", func(t *testing.T) {
		t.Parallel()

		schema := []byte(`#C: { monitor?: { mode?: "poll" | "notify" } }`)
		_, err := ParseAndDecode[map[string]any](schema, []byte(`monitor: mode: "push"`), "#C",
			WithFilename("config.cue"), WithConcrete(false))
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "config.cue") || !strings.Contains(err.Error(), "monitor.mode") {
			t.Errorf("error should name file and field, got: %v", err)
		}
	})
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path []string
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single", path: []string{"preferred_manager"}, want: "preferred_manager"},
		{name: "nested", path: []string{"monitor", "poll_interval"}, want: "monitor.poll_interval"},
		{name: "index", path: []string{"items", "0", "name"}, want: "items[0].name"},
		{name: "trailing index", path: []string{"items", "0", "values", "1"}, want: "items[0].values[1]"},
		{name: "leading number", path: []string{"0", "x"}, want: "0.x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatPath(tt.path); got != tt.want {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{name: "empty", size: 0},
		{name: "under", size: 99},
		{name: "exact", size: 100},
		{name: "over", size: 101, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := CheckFileSize(make([]byte, tt.size), 100, "config.cue")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckFileSize(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "101 bytes exceeds maximum 100") {
				t.Errorf("error should report both sizes, got: %v", err)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	withPath := &ValidationError{FilePath: "config.cue", CUEPath: "monitor.poll_interval", Message: `invalid duration "soon"`}
	if got, want := withPath.Error(), `config.cue: monitor.poll_interval: invalid duration "soon"`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	noPath := &ValidationError{FilePath: "config.cue", Message: "empty document"}
	if got, want := noPath.Error(), "config.cue: empty document"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
