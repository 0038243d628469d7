// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pmswitch/pmswitch/internal/buffer"
	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

type (
	// CLI wires the dependencies shared by every command. Handlers receive a
	// CLI reference instead of reaching for globals.
	CLI struct {
		Config config.Provider
		// Opener overrides the buffer backend named by the configuration.
		Opener buffer.Opener
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building a CLI. Nil
	// fields are replaced with production defaults by NewCLI.
	Dependencies struct {
		Config config.Provider
		Opener buffer.Opener
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlagValues holds the persistent flags shared by all commands.
	rootFlagValues struct {
		verbose    bool
		configPath string
	}
)

// NewCLI creates a CLI with defaults for omitted dependencies.
func NewCLI(deps Dependencies) *CLI {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	return &CLI{
		Config: deps.Config,
		Opener: deps.Opener,
		stdin:  deps.Stdin,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
}

// NewRootCommand builds the pmswitch command tree.
func NewRootCommand(cli *CLI) *cobra.Command {
	flags := &rootFlagValues{}

	root := &cobra.Command{
		Use:   "pmswitch",
		Short: "Rewrite copied npm, pnpm, yarn and bun commands for your package manager",
		Long: TitleStyle.Render("pmswitch") + SubtitleStyle.Render(" - speak your package manager's dialect") + `

pmswitch watches the clipboard for package manager commands copied from
READMEs and docs, and rewrites them in place for the package manager you
actually use: "npm i -D vitest" becomes "pnpm add -D vitest", "npx
create-vite" becomes "bunx create-vite".

` + SubtitleStyle.Render("Examples:") + `
  pmswitch watch --manager pnpm     Rewrite clipboard commands until Ctrl+C
  pmswitch translate npm i react    Translate one command
  pmswitch config set-manager bun   Remember your preferred manager
  pmswitch managers                 List supported managers`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pmswitch/config.cue)")

	root.AddCommand(
		newWatchCommand(cli, flags),
		newTranslateCommand(cli, flags),
		newConfigCommand(cli, flags),
		newManagersCommand(cli, flags),
		newMCPCommand(cli, flags),
	)

	root.SetIn(cli.stdin)
	root.SetOut(cli.stdout)
	root.SetErr(cli.stderr)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	cli := NewCLI(Dependencies{})
	root := NewRootCommand(cli)

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// errorHandler prints actionable errors with their suggestions and stays
// quiet for bare exit codes.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintf(w, "\n%s %s\n\n", ErrorStyle.Render("Error:"), ae.Format(false))
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// loadConfig loads the configuration honoring --config.
func (c *CLI) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	return c.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
}

// renderIssue prints the catalog page linked to err, if any, to stderr.
func (c *CLI) renderIssue(err error, scheme config.ColorScheme) {
	id, ok := issue.IssueOf(err)
	if !ok {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	if scheme == "" {
		scheme = config.ColorSchemeAuto
	}
	rendered, renderErr := entry.Render(string(scheme))
	if renderErr != nil {
		return
	}
	fmt.Fprint(c.stderr, rendered)
}

// newLogger creates the process logger. Logs go to w, which is stderr in
// production so stdout stays free for command output.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "pmswitch",
	})
}
