// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pmswitch/pmswitch/internal/app"
	"github.com/pmswitch/pmswitch/internal/mcpserver"
)

func newMCPCommand(cli *CLI, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the pmswitch tools over MCP on stdio",
		Long: `Serve pmswitch as a Model Context Protocol server on standard input and
output. Assistants can translate commands, read and change the preferred
manager, and toggle clipboard monitoring.

Logs go to standard error so they never corrupt the protocol stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}

			a := app.New(app.Dependencies{
				Config:     cfg,
				ConfigPath: rootFlags.configPath,
				Opener:     cli.Opener,
				Logger:     newLogger(cli.stderr, rootFlags.verbose || cfg.UI.Verbose),
			})
			defer a.Close()
			a.Initialize()

			return mcpserver.NewServer(a, Version).ServeStdio()
		},
	}
}
