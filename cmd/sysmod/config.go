// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"sysmod-cli/internal/config"
	"sysmod-cli/internal/issue"
)

// newConfigCommand creates the `sysmod config` command tree.
func newConfigCommand(app *App, flags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sysmod configuration",
		Long: `Manage sysmod configuration.

Configuration is read from the first file found of:
  - the --config flag
  - ./sysmod.cue in the working directory
  - the user config file (~/.config/sysmod/config.cue on Linux)

SYSMOD_* environment variables (SYSMOD_LOG_LEVEL, SYSMOD_HTTP_TIMEOUT, ...)
override values from the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app, flags)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig(app.loadOptions(flags), force)
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app, flags)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, flags *rootFlagValues) error {
	cfg, err := app.loadConfig(ctx, flags)
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render(glamourStyle(app.stderr)); renderErr == nil {
			fmt.Fprint(app.stderr, rendered)
		}
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, err := config.ResolvePath(app.loadOptions(flags))
	if err != nil || path == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(w)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "(working directory)"
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log_level"), valueStyle.Render(cfg.LogLevel.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("base_url"), valueStyle.Render(baseURL))
	printList(w, keyStyle.Render("import_maps"), cfg.ImportMaps)
	printList(w, keyStyle.Render("preload"), cfg.Preload)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("bootstrap"))
	fmt.Fprintf(w, "  scan_dir: %s\n", valueStyle.Render(cfg.Bootstrap.ScanDir))
	if cfg.Bootstrap.HTML != "" {
		fmt.Fprintf(w, "  html: %s\n", valueStyle.Render(cfg.Bootstrap.HTML))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("http"))
	fmt.Fprintf(w, "  timeout: %s\n", valueStyle.Render(cfg.HTTP.Timeout.String()))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("shell"))
	fmt.Fprintf(w, "  allow_exec: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Shell.AllowExec)))
	fmt.Fprintf(w, "  inherit_env: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.Shell.InheritEnv)))
	return nil
}

func printList(w io.Writer, key string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(w, "%s: %s\n", key, SubtitleStyle.Render("(none configured)"))
		return
	}
	fmt.Fprintf(w, "%s:\n", key)
	for _, v := range values {
		fmt.Fprintf(w, "  - %s\n", SuccessStyle.Render(v))
	}
}

func showConfigPath(app *App, flags *rootFlagValues) error {
	opts := app.loadOptions(flags)
	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = config.ConfigDir(); err != nil {
			return err
		}
	}
	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	fmt.Fprintf(app.stdout, "Local file: %s\n", filepath.Join(app.workDir, config.LocalConfigFileName+"."+config.ConfigFileExt))

	active, err := config.ResolvePath(opts)
	if err != nil {
		return err
	}
	if active == "" {
		active = "(none, using defaults)"
	}
	fmt.Fprintf(app.stdout, "Active: %s\n", active)
	return nil
}
