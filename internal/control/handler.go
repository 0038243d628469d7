// SPDX-License-Identifier: MPL-2.0

package control

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pmswitch/pmswitch/internal/app"
	"github.com/pmswitch/pmswitch/internal/notify"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

// eventBuffer is the per-stream subscription buffer. A client that falls
// further behind misses events.
const eventBuffer = 16

type (
	// Controller is the application surface the API drives.
	Controller interface {
		PreferredManager() string
		SetPreferredManager(name string)
		ToggleMonitoring(ctx context.Context, enabled bool) error
		MonitoringState() bool
		Subscribe(buffer int) (<-chan notify.Event, func())
		TranslateFor(command string, target pm.Manager) app.Translation
	}

	preferenceBody struct {
		Manager string `json:"manager"`
	}

	monitoringBody struct {
		Enabled *bool `json:"enabled"`
	}

	translateRequest struct {
		Command string `json:"command"`
		Target  string `json:"target,omitempty"`
	}

	translateResponse struct {
		Translated string     `json:"translated"`
		Changed    bool       `json:"changed"`
		From       pm.Manager `json:"from,omitempty"`
		Kind       pm.Kind    `json:"kind,omitempty"`
	}

	errorBody struct {
		Error string `json:"error"`
	}

	api struct {
		ctrl   Controller
		logger *log.Logger
	}
)

// NewHandler builds the API router. metrics, when non-nil, is mounted at
// /metrics.
func NewHandler(ctrl Controller, metrics http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &api{ctrl: ctrl, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(a.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/preference", a.getPreference)
		r.Put("/preference", a.putPreference)
		r.Get("/monitoring", a.getMonitoring)
		r.Put("/monitoring", a.putMonitoring)
		r.Post("/translate", a.translate)
		r.Get("/events", a.events)
	})

	return r
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status())
	})
}

func (a *api) getPreference(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, preferenceBody{Manager: a.ctrl.PreferredManager()})
}

func (a *api) putPreference(w http.ResponseWriter, r *http.Request) {
	var body preferenceBody
	if !decode(w, r, &body) {
		return
	}
	a.ctrl.SetPreferredManager(body.Manager)
	writeJSON(w, http.StatusOK, preferenceBody{Manager: a.ctrl.PreferredManager()})
}

func (a *api) getMonitoring(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": a.ctrl.MonitoringState()})
}

func (a *api) putMonitoring(w http.ResponseWriter, r *http.Request) {
	var body monitoringBody
	if !decode(w, r, &body) {
		return
	}
	if body.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: `missing "enabled"`})
		return
	}

	if err := a.ctrl.ToggleMonitoring(r.Context(), *body.Enabled); err != nil {
		a.logger.Error("toggle monitoring", "enabled", *body.Enabled, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": a.ctrl.MonitoringState()})
}

func (a *api) translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: `missing "command"`})
		return
	}

	target := pm.Manager(req.Target)
	if req.Target == "" {
		target = pm.Manager(a.ctrl.PreferredManager())
	}

	tr := a.ctrl.TranslateFor(req.Command, target)
	resp := translateResponse{Translated: tr.Result.Command, Changed: tr.Changed}
	if tr.Changed {
		resp.From = tr.Result.From
		resp.Kind = tr.Result.Kind
	}
	writeJSON(w, http.StatusOK, resp)
}

// events streams translation events as Server-Sent Events until the client
// disconnects or the server shuts down.
func (a *api) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := a.ctrl.Subscribe(eventBuffer)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				a.logger.Error("encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", notify.EventName, data)
			flusher.Flush()
		}
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
