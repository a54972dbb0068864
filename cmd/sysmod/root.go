// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	return newRootCommand(app, &rootFlagValues{})
}

func newRootCommand(app *App, flags *rootFlagValues) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sysmod",
		Short: "A dynamic module loader",
		Long: TitleStyle.Render("sysmod") + SubtitleStyle.Render(" - A dynamic module loader") + `

sysmod loads modules by specifier, following import maps to turn bare
names into URLs. Modules may depend on each other in cycles and see
the exports of their dependencies as live bindings.

` + SubtitleStyle.Render("Module kinds:") + `
  .sh                 shell modules (import, provide, get, resolve)
  .json .cue          data modules decoded with CUE
  .yaml .yml .toml    data modules

` + SubtitleStyle.Render("Examples:") + `
  sysmod run ./main.sh          Import and execute a module
  sysmod run app --watch        Re-run on every change
  sysmod resolve lodash         Show where a specifier resolves
  sysmod graph ./main.sh        Show the dependency graph
  sysmod importmap              Print the merged import map`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $HOME/.config/sysmod/config.cue)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCommand(app, flags),
		newResolveCommand(app, flags),
		newGraphCommand(app, flags),
		newImportMapCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process on failure.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}

	flags := &rootFlagValues{}
	rootCmd := newRootCommand(app, flags)
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler(flags)),
	); err != nil {
		os.Exit(exitCode(err))
	}
}
