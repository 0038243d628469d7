// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pmswitch/pmswitch/pkg/pm"
)

func newManagersCommand(cli *CLI, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:     "managers",
		Aliases: []string{"ls"},
		Short:   "List supported package managers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.stdout, renderManagers(cfg.PreferredManager))
			return nil
		},
	}
}

// renderManagers builds the manager table, marking preferred with a check.
func renderManagers(preferred pm.Manager) string {
	rows := make([][]string, 0, len(pm.Managers()))
	for _, m := range pm.Managers() {
		mark := ""
		if m == preferred {
			mark = "✓"
		}
		runner := m.RunnerPrefix()
		if runner == "" {
			runner = "-"
		}
		global := m.GlobalInstall()
		if global == "" {
			global = "-"
		}
		rows = append(rows, []string{mark, m.String(), runner, global})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("", "MANAGER", "RUNNER", "GLOBAL INSTALL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 0:
				return tableCellStyle.Foreground(ColorSuccess)
			case col == 1:
				return tableCellStyle.Foreground(ColorHighlight)
			default:
				return tableCellStyle
			}
		}).
		String()
}
