// SPDX-License-Identifier: MPL-2.0

package control

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pmswitch/pmswitch/internal/app"
	"github.com/pmswitch/pmswitch/internal/buffer"
	"github.com/pmswitch/pmswitch/internal/config"
)

func newTestApp(t *testing.T, mem *buffer.Memory) *app.App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Monitor.PollInterval = "5ms"
	a := app.New(app.Dependencies{
		Config: cfg,
		Opener: func() (buffer.Backend, error) { return mem, nil },
	})
	a.Initialize()
	t.Cleanup(a.Close)
	return a
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestPreference(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, buffer.NewMemory(""))
	h := NewHandler(a, nil, nil)

	rec := do(t, h, http.MethodGet, "/v1/preference", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	if got := decodeBody[preferenceBody](t, rec).Manager; got != "npm" {
		t.Errorf("GET manager = %q, want npm", got)
	}

	rec = do(t, h, http.MethodPut, "/v1/preference", `{"manager":"bun"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body)
	}
	if got := a.PreferredManager(); got != "bun" {
		t.Errorf("PreferredManager() = %q after PUT", got)
	}

	rec = do(t, h, http.MethodGet, "/v1/preference", "")
	if got := decodeBody[preferenceBody](t, rec).Manager; got != "bun" {
		t.Errorf("GET manager after PUT = %q, want bun", got)
	}
}

func TestPreference_BadBody(t *testing.T) {
	t.Parallel()

	h := NewHandler(newTestApp(t, buffer.NewMemory("")), nil, nil)

	for _, body := range []string{"", "not json", `{"mgr":"bun"}`} {
		if rec := do(t, h, http.MethodPut, "/v1/preference", body); rec.Code != http.StatusBadRequest {
			t.Errorf("PUT %q status = %d, want 400", body, rec.Code)
		}
	}
}

func TestMonitoring(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, buffer.NewMemory(""))
	h := NewHandler(a, nil, nil)

	rec := do(t, h, http.MethodPut, "/v1/monitoring", `{"enabled":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body)
	}
	if !decodeBody[map[string]bool](t, rec)["enabled"] {
		t.Error("PUT response should report enabled")
	}
	if !a.MonitoringState() {
		t.Error("monitoring should be on")
	}

	rec = do(t, h, http.MethodGet, "/v1/monitoring", "")
	if !decodeBody[map[string]bool](t, rec)["enabled"] {
		t.Error("GET should report enabled")
	}

	do(t, h, http.MethodPut, "/v1/monitoring", `{"enabled":false}`)
	if a.MonitoringState() {
		t.Error("monitoring should be off")
	}

	if rec := do(t, h, http.MethodPut, "/v1/monitoring", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("PUT without enabled status = %d, want 400", rec.Code)
	}
}

func TestMonitoring_StartFailure(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Monitor.Backend = config.BackendFile
	a := app.New(app.Dependencies{Config: cfg})
	h := NewHandler(a, nil, nil)

	rec := do(t, h, http.MethodPut, "/v1/monitoring", `{"enabled":true}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if msg := decodeBody[errorBody](t, rec).Error; !strings.Contains(msg, "unavailable") {
		t.Errorf("error = %q", msg)
	}
	if a.MonitoringState() {
		t.Error("monitoring should stay off")
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, buffer.NewMemory(""))
	a.SetPreferredManager("pnpm")
	h := NewHandler(a, nil, nil)

	tests := []struct {
		name        string
		body        string
		wantCommand string
		wantChanged bool
	}{
		{"uses preference", `{"command":"npm i react"}`, "pnpm add react", true},
		{"explicit target", `{"command":"npm i react","target":"yarn"}`, "yarn add react", true},
		{"unknown target", `{"command":"npm i react","target":"deno"}`, "npm i react", false},
		{"not a command", `{"command":"git status"}`, "git status", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := do(t, h, http.MethodPost, "/v1/translate", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			resp := decodeBody[translateResponse](t, rec)
			if resp.Translated != tt.wantCommand || resp.Changed != tt.wantChanged {
				t.Errorf("got %+v, want %q changed=%v", resp, tt.wantCommand, tt.wantChanged)
			}
		})
	}

	if rec := do(t, h, http.MethodPost, "/v1/translate", `{"command":"  "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("blank command status = %d, want 400", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, buffer.NewMemory(""))
	h := NewHandler(a, a.Metrics().Handler(), nil)

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pmswitch_monitor_running") {
		t.Error("/metrics should expose pmswitch collectors")
	}
}

func TestEvents(t *testing.T) {
	t.Parallel()

	mem := buffer.NewMemory("")
	a := newTestApp(t, mem)
	a.SetPreferredManager("pnpm")

	ts := httptest.NewServer(NewHandler(a, nil, nil))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/events")
	if err != nil {
		t.Fatalf("GET /v1/events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	// The comment line is written after the subscription exists.
	next := func() string {
		select {
		case l, ok := <-lines:
			if !ok {
				t.Fatal("event stream closed")
			}
			return l
		case <-time.After(5 * time.Second):
			t.Fatal("timed out reading event stream")
		}
		return ""
	}
	if l := next(); l != ": connected" {
		t.Fatalf("first line = %q", l)
	}

	if err := a.ToggleMonitoring(t.Context(), true); err != nil {
		t.Fatalf("ToggleMonitoring() error: %v", err)
	}
	mem.Set("npm i react")

	for {
		l := next()
		if l == "event: command-translated" {
			break
		}
	}
	data, ok := strings.CutPrefix(next(), "data: ")
	if !ok {
		t.Fatal("event line not followed by data")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if payload["original"] != "npm i react" || payload["translated"] != "pnpm add react" {
		t.Errorf("payload = %v", payload)
	}
}
