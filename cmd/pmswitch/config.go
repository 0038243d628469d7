// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmswitch/pmswitch/internal/config"
	"github.com/pmswitch/pmswitch/pkg/pm"
)

// settableKeys lists the keys accepted by `pmswitch config set`, in display order.
var settableKeys = []string{
	"preferred_manager",
	"monitor.backend",
	"monitor.mode",
	"monitor.poll_interval",
	"monitor.file_path",
	"monitor.notify_debounce",
	"control.enabled",
	"control.listen",
	"ui.verbose",
	"ui.color_scheme",
}

// newConfigCommand creates the `pmswitch config` command tree.
func newConfigCommand(cli *CLI, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pmswitch configuration",
		Long: `Manage pmswitch configuration.

Configuration is stored in:
  - Linux: ~/.config/pmswitch/config.cue
  - macOS: ~/Library/Application Support/pmswitch/config.cue
  - Windows: %APPDATA%\pmswitch\config.cue

PMSWITCH_* environment variables override file values, for example
PMSWITCH_PREFERRED_MANAGER=pnpm.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), cli, rootFlags, format)
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", "", "output format (cue, json, toml); default is a styled summary")
	cfgCmd.AddCommand(showCmd)

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(cli, rootFlags, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return showConfigPath(cli, rootFlags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value and save the file.\n\nValid keys: " + strings.Join(settableKeys, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), cli, rootFlags, args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set-manager <name>",
		Short: "Set the preferred package manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(cmd.Context(), cli, rootFlags, "preferred_manager", args[0])
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, cli *CLI, rootFlags *rootFlagValues, format string) error {
	cfg, err := cli.loadConfig(ctx, rootFlags)
	if err != nil {
		cli.renderIssue(err, config.ColorSchemeAuto)
		return err
	}

	if format != "" {
		out, err := config.Encode(cfg, format)
		if err != nil {
			return err
		}
		fmt.Fprint(cli.stdout, out)
		return nil
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := cli.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, exists, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err == nil && exists {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("preferred_manager"), valueStyle.Render(cfg.PreferredManager.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("monitor"))
	fmt.Fprintf(w, "  backend: %s\n", valueStyle.Render(cfg.Monitor.Backend.String()))
	fmt.Fprintf(w, "  mode: %s\n", valueStyle.Render(cfg.Monitor.Mode.String()))
	fmt.Fprintf(w, "  poll_interval: %s\n", valueStyle.Render(cfg.Monitor.PollInterval))
	fmt.Fprintf(w, "  notify_debounce: %s\n", valueStyle.Render(cfg.Monitor.NotifyDebounce))
	if cfg.Monitor.FilePath != "" {
		fmt.Fprintf(w, "  file_path: %s\n", valueStyle.Render(cfg.Monitor.FilePath))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("control"))
	fmt.Fprintf(w, "  enabled: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Control.Enabled)))
	fmt.Fprintf(w, "  listen: %s\n", valueStyle.Render(cfg.Control.Listen))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(w, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))

	return nil
}

func initConfig(cli *CLI, rootFlags *rootFlagValues, force bool) error {
	path, existed, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return err
	}

	if _, err := config.CreateDefaultConfig(path, force); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	if existed && !force {
		fmt.Fprintf(cli.stdout, "%s Configuration already exists at %s (use --force to overwrite)\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(cli.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(cli *CLI, rootFlags *rootFlagValues) error {
	path, exists, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.stdout, "Config file: %s\n", path)
	if !exists {
		fmt.Fprintln(cli.stdout, SubtitleStyle.Render("(not created yet, run 'pmswitch config init')"))
	}
	return nil
}

func setConfigValue(ctx context.Context, cli *CLI, rootFlags *rootFlagValues, key, value string) error {
	path, exists, err := config.ResolvePath(config.LoadOptions{ConfigFilePath: rootFlags.configPath})
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if exists {
		if cfg, err = cli.loadConfig(ctx, rootFlags); err != nil {
			return err
		}
	}

	switch key {
	case "preferred_manager":
		manager, err := pm.Parse(value)
		if err != nil {
			return err
		}
		cfg.PreferredManager = manager
	case "monitor.backend":
		cfg.Monitor.Backend = config.BackendKind(value)
	case "monitor.mode":
		cfg.Monitor.Mode = config.WatchMode(value)
	case "monitor.poll_interval":
		cfg.Monitor.PollInterval = value
	case "monitor.file_path":
		cfg.Monitor.FilePath = value
	case "monitor.notify_debounce":
		cfg.Monitor.NotifyDebounce = value
	case "control.enabled":
		cfg.Control.Enabled = value == "true" || value == "1"
	case "control.listen":
		cfg.Control.Listen = value
	case "ui.verbose":
		cfg.UI.Verbose = value == "true" || value == "1"
	case "ui.color_scheme":
		cfg.UI.ColorScheme = config.ColorScheme(value)
	default:
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(settableKeys, ", "))
	}

	if valid, errs := cfg.IsValid(); !valid {
		return errs[0]
	}

	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cli.stdout, "%s Set %s = %s\n", SuccessStyle.Render("✓"), key, value)
	return nil
}
