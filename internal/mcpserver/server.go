// SPDX-License-Identifier: MPL-2.0

// Package mcpserver exposes the pmswitch control surface as Model Context
// Protocol tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pmswitch/pmswitch/internal/app"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

type (
	// Controller is the application surface the tools drive.
	Controller interface {
		PreferredManager() string
		SetPreferredManager(name string)
		ToggleMonitoring(ctx context.Context, enabled bool) error
		MonitoringState() bool
		TranslateFor(command string, target pm.Manager) app.Translation
	}

	// Server wraps an MCP server bound to a Controller.
	Server struct {
		ctrl      Controller
		mcpServer *server.MCPServer
	}

	translation struct {
		Translated string     `json:"translated"`
		Changed    bool       `json:"changed"`
		From       pm.Manager `json:"from,omitempty"`
		To         pm.Manager `json:"to"`
		Kind       pm.Kind    `json:"kind,omitempty"`
	}
)

// NewServer creates an MCP server with the pmswitch tools registered.
func NewServer(ctrl Controller, version string) *Server {
	s := &Server{
		ctrl:      ctrl,
		mcpServer: server.NewMCPServer("pmswitch", strings.TrimSpace(version)),
	}
	s.registerTools()
	return s
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("translate_command",
		mcp.WithDescription("Rewrite an npm, pnpm, yarn or bun command into another package manager's syntax. Does not touch the clipboard."),
		mcp.WithString("command", mcp.Required(), mcp.Description("The command line, e.g. 'npm install -D vitest'")),
		mcp.WithString("target", mcp.Description("Target package manager (npm, pnpm, yarn, bun). Defaults to the preferred manager.")),
	), s.handleTranslate)

	s.mcpServer.AddTool(mcp.NewTool("get_preferred_manager",
		mcp.WithDescription("Return the package manager copied commands are rewritten for."),
	), s.handleGetPreference)

	s.mcpServer.AddTool(mcp.NewTool("set_preferred_manager",
		mcp.WithDescription("Change the package manager copied commands are rewritten for."),
		mcp.WithString("manager", mcp.Required(), mcp.Description("npm, pnpm, yarn or bun; other names disable rewriting")),
	), s.handleSetPreference)

	s.mcpServer.AddTool(mcp.NewTool("get_monitoring_state",
		mcp.WithDescription("Report whether clipboard monitoring is on."),
	), s.handleGetMonitoring)

	s.mcpServer.AddTool(mcp.NewTool("toggle_monitoring",
		mcp.WithDescription("Turn clipboard monitoring on or off."),
		mcp.WithBoolean("enabled", mcp.Required(), mcp.Description("true to start monitoring, false to stop")),
	), s.handleToggleMonitoring)
}

func (s *Server) handleTranslate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := req.RequireString("command")
	if err != nil || strings.TrimSpace(command) == "" {
		return mcp.NewToolResultError("command is required"), nil
	}

	target := pm.Manager(req.GetString("target", ""))
	if target == "" {
		target = pm.Manager(s.ctrl.PreferredManager())
	}

	tr := s.ctrl.TranslateFor(command, target)
	out := translation{
		Translated: tr.Result.Command,
		Changed:    tr.Changed,
		To:         target,
	}
	if tr.Changed {
		out.From = tr.Result.From
		out.Kind = tr.Result.Kind
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode translation: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetPreference(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.ctrl.PreferredManager()), nil
}

func (s *Server) handleSetPreference(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("manager")
	if err != nil {
		return mcp.NewToolResultError("manager is required"), nil
	}
	s.ctrl.SetPreferredManager(name)
	if !pm.Manager(name).IsKnown() {
		return mcp.NewToolResultText(fmt.Sprintf("preferred package manager set to %s; it is not a known manager, so commands will not be rewritten", name)), nil
	}
	return mcp.NewToolResultText("preferred package manager set to " + name), nil
}

func (s *Server) handleGetMonitoring(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(fmt.Sprintf("%t", s.ctrl.MonitoringState())), nil
}

func (s *Server) handleToggleMonitoring(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, err := req.RequireBool("enabled")
	if err != nil {
		return mcp.NewToolResultError("enabled is required"), nil
	}

	if err := s.ctrl.ToggleMonitoring(ctx, enabled); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%t", s.ctrl.MonitoringState())), nil
}
