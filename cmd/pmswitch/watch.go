// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmswitch/pmswitch/internal/app"
	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/internal/control"
	"github.com/pmswitch/pmswitch/internal/notify"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

type watchFlagValues struct {
	manager  string
	backend  string
	filePath string
	mode     string
	interval string
	listen   string
	quiet    bool
}

func newWatchCommand(cli *CLI, rootFlags *rootFlagValues) *cobra.Command {
	flags := &watchFlagValues{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rewrite package manager commands copied to the clipboard",
		Long: `Watch the shared buffer (the system clipboard by default) and rewrite
every npm, pnpm, yarn or bun command copied to it into the preferred
manager's syntax. Runs until interrupted.

Flags override the matching configuration values for this run only.`,
		Example: `  pmswitch watch
  pmswitch watch --manager bun
  pmswitch watch --file /tmp/buffer.txt --mode notify
  pmswitch watch --listen 127.0.0.1:7717`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, cli, rootFlags, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.manager, "manager", "m", "", "preferred package manager (npm, pnpm, yarn, bun)")
	cmd.Flags().StringVar(&flags.backend, "backend", "", "buffer backend (clipboard, file, stub, memory)")
	cmd.Flags().StringVar(&flags.filePath, "file", "", "watch a text file instead of the clipboard (implies --backend file)")
	cmd.Flags().StringVar(&flags.mode, "mode", "", "how to wait between reads (poll, notify)")
	cmd.Flags().StringVar(&flags.interval, "interval", "", "poll interval, e.g. 250ms")
	cmd.Flags().StringVar(&flags.listen, "listen", "", "serve the control API on this address")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "do not print rewrites")

	return cmd
}

// applyWatchFlags overlays the non-empty flags on cfg and validates the result.
func applyWatchFlags(cfg *config.Config, flags *watchFlagValues) error {
	if flags.manager != "" {
		cfg.PreferredManager = pm.Manager(flags.manager)
	}
	if flags.filePath != "" {
		cfg.Monitor.Backend = config.BackendFile
		cfg.Monitor.FilePath = flags.filePath
	}
	if flags.backend != "" {
		cfg.Monitor.Backend = config.BackendKind(flags.backend)
	}
	if flags.mode != "" {
		cfg.Monitor.Mode = config.WatchMode(flags.mode)
	}
	if flags.interval != "" {
		cfg.Monitor.PollInterval = flags.interval
	}
	if flags.listen != "" {
		cfg.Control.Enabled = true
		cfg.Control.Listen = flags.listen
	}

	if valid, errs := cfg.IsValid(); !valid {
		return errs[0]
	}
	return nil
}

func runWatch(cmd *cobra.Command, cli *CLI, rootFlags *rootFlagValues, flags *watchFlagValues) error {
	ctx := cmd.Context()

	cfg, err := cli.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	if err := applyWatchFlags(cfg, flags); err != nil {
		return err
	}

	logger := newLogger(cli.stderr, rootFlags.verbose || cfg.UI.Verbose)
	a := app.New(app.Dependencies{
		Config:     cfg,
		ConfigPath: rootFlags.configPath,
		Opener:     cli.Opener,
		Logger:     logger,
	})
	defer a.Close()
	a.Initialize()

	events, unsubscribe := a.Subscribe(32)
	defer unsubscribe()

	if err := a.ToggleMonitoring(ctx, true); err != nil {
		cli.renderIssue(err, cfg.UI.ColorScheme)
		return err
	}

	var serverErrs <-chan error
	if cfg.Control.Enabled {
		srv := control.NewServer(cfg.Control.Listen, control.NewHandler(a, a.Metrics().Handler(), logger.WithPrefix("control")), logger.WithPrefix("control"))
		if err := srv.Start(ctx); err != nil {
			cli.renderIssue(err, cfg.UI.ColorScheme)
			return err
		}
		defer srv.Stop()
		serverErrs = srv.Err()
		logger.Info("control API listening", "url", srv.URL())
	}

	if !flags.quiet {
		fmt.Fprintf(cli.stdout, "%s %s %s\n",
			TitleStyle.Render("pmswitch"),
			SubtitleStyle.Render("rewriting commands for"),
			CmdStyle.Render(a.PreferredManager()))
	}

	return printEvents(ctx, cli, events, serverErrs, flags.quiet)
}

// printEvents echoes rewrites until ctx ends or the control server fails.
func printEvents(ctx context.Context, cli *CLI, events <-chan notify.Event, serverErrs <-chan error, quiet bool) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serverErrs:
			if err != nil {
				return err
			}
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if quiet {
				continue
			}
			fmt.Fprintf(cli.stdout, "%s %s %s %s\n",
				SuccessStyle.Render("✓"),
				SubtitleStyle.Render(e.Original),
				CmdStyle.Render("→"),
				e.Translated)
		}
	}
}
