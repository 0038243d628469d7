// SPDX-License-Identifier: MPL-2.0

package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pmswitch/pmswitch/internal/app"
	"github.com/pmswitch/pmswitch/internal/buffer"
	"github.com/pmswitch/pmswitch/internal/config"
)

func newTestServer(t *testing.T, backend config.BackendKind) (*Server, *app.App) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Monitor.Backend = backend
	deps := app.Dependencies{Config: cfg}
	if backend == config.BackendMemory {
		mem := buffer.NewMemory("")
		deps.Opener = func() (buffer.Backend, error) { return mem, nil }
	}

	a := app.New(deps)
	a.Initialize()
	t.Cleanup(a.Close)
	return NewServer(a, "1.0.0\n"), a
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestTranslateCommand(t *testing.T) {
	t.Parallel()

	s, a := newTestServer(t, config.BackendMemory)
	a.SetPreferredManager("bun")

	tests := []struct {
		name        string
		args        map[string]any
		wantCommand string
		wantChanged bool
	}{
		{"preference", map[string]any{"command": "npx create-vite"}, "bunx create-vite", true},
		{"explicit target", map[string]any{"command": "yarn add -D vitest", "target": "npm"}, "npm install -D vitest", true},
		{"already target", map[string]any{"command": "bun add zod"}, "bun add zod", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := s.handleTranslate(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("handleTranslate() error: %v", err)
			}
			if res.IsError {
				t.Fatalf("tool error: %s", text(t, res))
			}

			var out translation
			if err := json.Unmarshal([]byte(text(t, res)), &out); err != nil {
				t.Fatalf("decode result: %v", err)
			}
			if out.Translated != tt.wantCommand || out.Changed != tt.wantChanged {
				t.Errorf("got %+v, want %q changed=%v", out, tt.wantCommand, tt.wantChanged)
			}
		})
	}

	res, err := s.handleTranslate(context.Background(), call(map[string]any{}))
	if err != nil {
		t.Fatalf("handleTranslate() error: %v", err)
	}
	if !res.IsError {
		t.Error("missing command should be a tool error")
	}
}

func TestPreferenceTools(t *testing.T) {
	t.Parallel()

	s, a := newTestServer(t, config.BackendMemory)

	res, _ := s.handleGetPreference(context.Background(), call(nil))
	if got := text(t, res); got != "npm" {
		t.Errorf("get_preferred_manager = %q, want npm", got)
	}

	res, _ = s.handleSetPreference(context.Background(), call(map[string]any{"manager": "pnpm"}))
	if res.IsError {
		t.Fatalf("set_preferred_manager error: %s", text(t, res))
	}
	if a.PreferredManager() != "pnpm" {
		t.Errorf("PreferredManager() = %q", a.PreferredManager())
	}

	res, _ = s.handleSetPreference(context.Background(), call(map[string]any{"manager": "deno"}))
	if res.IsError {
		t.Fatalf("any name is accepted, got tool error %q", text(t, res))
	}
	if !strings.Contains(text(t, res), "not be rewritten") {
		t.Errorf("result should warn that deno disables rewriting, got %q", text(t, res))
	}
	if a.PreferredManager() != "deno" {
		t.Errorf("PreferredManager() = %q, want deno", a.PreferredManager())
	}

	res, _ = s.handleTranslate(context.Background(), call(map[string]any{"command": "npm i react"}))
	if strings.Contains(text(t, res), `"changed":true`) {
		t.Errorf("an unknown preference must not rewrite, got %s", text(t, res))
	}
}

func TestMonitoringTools(t *testing.T) {
	t.Parallel()

	s, a := newTestServer(t, config.BackendMemory)

	res, _ := s.handleToggleMonitoring(context.Background(), call(map[string]any{"enabled": true}))
	if res.IsError {
		t.Fatalf("toggle_monitoring error: %s", text(t, res))
	}
	if !a.MonitoringState() {
		t.Error("monitoring should be on")
	}

	res, _ = s.handleGetMonitoring(context.Background(), call(nil))
	if got := text(t, res); got != "true" {
		t.Errorf("get_monitoring_state = %q", got)
	}

	res, _ = s.handleToggleMonitoring(context.Background(), call(map[string]any{"enabled": false}))
	if text(t, res) != "false" || a.MonitoringState() {
		t.Error("monitoring should be off")
	}

	res, _ = s.handleToggleMonitoring(context.Background(), call(map[string]any{}))
	if !res.IsError {
		t.Error("missing enabled should be a tool error")
	}
}

func TestToggleMonitoring_Unavailable(t *testing.T) {
	t.Parallel()

	s, a := newTestServer(t, config.BackendFile)

	res, _ := s.handleToggleMonitoring(context.Background(), call(map[string]any{"enabled": true}))
	if !res.IsError {
		t.Fatal("start failure should be a tool error")
	}
	if a.MonitoringState() {
		t.Error("monitoring should stay off")
	}
}
