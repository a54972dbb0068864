// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"sysmod-cli/internal/watch"
	"sysmod-cli/pkg/loader"
)

type runFlagValues struct {
	watch     bool
	print     bool
	allowExec bool
	debounce  time.Duration
	patterns  []string
}

func newRunCommand(app *App, flags *rootFlagValues) *cobra.Command {
	rf := &runFlagValues{}
	runCmd := &cobra.Command{
		Use:   "run <id>...",
		Short: "Import and execute modules",
		Long: `Import each module in order, loading and executing everything it
depends on. Bootstrap configuration and preload modules are applied before
the first import.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rf.watch {
				return runWatchMode(cmd.Context(), app, flags, rf, args)
			}
			_, err := runOnce(cmd.Context(), app, flags, rf, args)
			return err
		},
	}

	runCmd.Flags().BoolVarP(&rf.watch, "watch", "w", false, "re-run when a loaded module or bootstrap file changes")
	runCmd.Flags().BoolVarP(&rf.print, "print", "p", false, "print the namespace of each imported module")
	runCmd.Flags().BoolVar(&rf.allowExec, "allow-exec", false, "let shell modules run host commands")
	runCmd.Flags().DurationVar(&rf.debounce, "debounce", watch.DefaultDebounce, "quiet period before a watch re-run")
	runCmd.Flags().StringSliceVar(&rf.patterns, "watch-pattern", nil, "additional glob patterns to watch, relative to the working directory")
	return runCmd
}

// runOnce imports ids with a fresh session. The session is returned even
// when an import fails so watch mode can track what was read.
func runOnce(ctx context.Context, app *App, flags *rootFlagValues, rf *runFlagValues, ids []string) (*session, error) {
	s, err := app.newSession(ctx, flags, sessionOptions{allowExec: rf.allowExec})
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		ns, err := s.loader.Import(ctx, id, "")
		if err != nil {
			return s, &ExitError{Code: exitCode(err), Err: classifyImportError(err, id)}
		}
		if rf.print {
			printNamespace(app.stdout, id, ns)
		}
	}
	return s, nil
}

func printNamespace(w io.Writer, id string, ns *loader.Namespace) {
	fmt.Fprintln(w, TitleStyle.Render(id))
	if ns.Len() == 0 {
		fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render("(no exports)"))
		return
	}
	for name, value := range ns.All() {
		fmt.Fprintf(w, "  %s = %v\n", CmdStyle.Render(name), value)
	}
}

// runWatchMode runs ids once, then again whenever a file the last run read
// changes. It blocks until the context is cancelled (e.g., Ctrl+C).
func runWatchMode(ctx context.Context, app *App, flags *rootFlagValues, rf *runFlagValues, ids []string) error {
	s, err := runOnce(ctx, app, flags, rf, ids)
	if s == nil {
		return err
	}
	if err != nil {
		app.printError(err, flags)
	}

	var w *watch.Watcher
	w, err = watch.New(watch.Config{
		Files:    s.watchedFiles(app),
		Patterns: rf.patterns,
		BaseDir:  app.workDir,
		Debounce: rf.debounce,
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintln(app.stderr, SubtitleStyle.Render(fmt.Sprintf("%d file(s) changed, re-running", len(changed))))
			next, err := runOnce(ctx, app, flags, rf, ids)
			if next != nil {
				w.SetFiles(next.watchedFiles(app))
			}
			if err != nil {
				app.printError(err, flags)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(app.stderr, SubtitleStyle.Render(fmt.Sprintf("watching %d file(s), press Ctrl+C to stop", len(w.Files()))))
	return w.Run(ctx)
}

// printError reports an error that does not end the process.
func (a *App) printError(err error, flags *rootFlagValues) {
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error:"), formatErrorForDisplay(err, flags.verbose))
}
