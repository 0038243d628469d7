// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmswitch/pmswitch/internal/app"
	"github.com/pmswitch/pmswitch/internal/issue"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

type translateFlagValues struct {
	to      string
	strict  bool
	explain bool
}

func newTranslateCommand(cli *CLI, rootFlags *rootFlagValues) *cobra.Command {
	flags := &translateFlagValues{}

	cmd := &cobra.Command{
		Use:   "translate [command...]",
		Short: "Translate a package manager command",
		Long: `Translate a package manager command into the preferred manager's syntax
and print the result. Commands that need no rewrite are printed unchanged.

Without arguments, each line of standard input is translated.`,
		Example: `  pmswitch translate npm install react
  pmswitch translate --to bun "npx create-vite my-app"
  cat README-commands.txt | pmswitch translate --to pnpm`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, cli, rootFlags, flags, args)
		},
	}

	cmd.Flags().StringVarP(&flags.to, "to", "t", "", "target package manager (default: configured preference)")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit with status 1 when a command is not rewritten")
	cmd.Flags().BoolVar(&flags.explain, "explain", false, "show which rule produced each rewrite")

	return cmd
}

func runTranslate(cmd *cobra.Command, cli *CLI, rootFlags *rootFlagValues, flags *translateFlagValues, args []string) error {
	cfg, err := cli.loadConfig(cmd.Context(), rootFlags)
	if err != nil {
		return err
	}

	target := cfg.PreferredManager
	if flags.to != "" {
		target, err = pm.Parse(flags.to)
		if err != nil {
			return issue.NewErrorContext().
				WithOperation("translate command").
				WithIssue(issue.UnknownManagerId).
				WithSuggestion("Run 'pmswitch managers' to list the supported package managers").
				Wrap(err).
				BuildError()
		}
	}

	a := app.New(app.Dependencies{Config: cfg, Logger: newLogger(cli.stderr, rootFlags.verbose)})

	var inputs []string
	if len(args) > 0 {
		inputs = []string{strings.Join(args, " ")}
	} else {
		scanner := bufio.NewScanner(cli.stdin)
		for scanner.Scan() {
			inputs = append(inputs, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read standard input: %w", err)
		}
	}

	unchanged := 0
	for _, input := range inputs {
		tr := a.TranslateFor(input, target)
		if !tr.Changed {
			unchanged++
			fmt.Fprintln(cli.stdout, input)
			continue
		}
		if flags.explain {
			fmt.Fprintf(cli.stdout, "%s %s\n", tr.Result.Command,
				SubtitleStyle.Render(fmt.Sprintf("# %s: %s → %s", tr.Result.Kind, tr.Result.From, tr.Result.To)))
			continue
		}
		fmt.Fprintln(cli.stdout, tr.Result.Command)
	}

	if flags.strict && unchanged > 0 {
		return &ExitError{Code: 1}
	}
	return nil
}
