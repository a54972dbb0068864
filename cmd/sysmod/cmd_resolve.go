// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sysmod-cli/internal/issue"
)

func newResolveCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var parent string
	resolveCmd := &cobra.Command{
		Use:   "resolve <id>...",
		Short: "Print the URL each specifier resolves to",
		Long: `Resolve specifiers against the bootstrap import maps and base URL
without fetching or executing anything.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags, sessionOptions{})
			if err != nil {
				return err
			}
			s.configure(cmd.Context())

			for _, id := range args {
				u, err := s.loader.Resolve(id, parent)
				if err != nil {
					return issue.NewErrorContext().
						WithOperation("resolve specifier").
						WithResource(id).
						WithIssue(issue.ResolutionFailedId).
						WithSuggestion("Add an entry for the specifier to an import map").
						WithSuggestion("Run 'sysmod importmap' to see the effective map").
						Wrap(err).
						BuildError()
				}
				fmt.Fprintln(app.stdout, u)
			}
			return nil
		},
	}
	resolveCmd.Flags().StringVar(&parent, "parent", "", "URL of the importing module (default is the base URL)")
	return resolveCmd
}

// configure applies the bootstrap configurations to the session's loader
// without importing the bootstrap modules, and returns the discovery error.
// Import does this itself on first use.
func (s *session) configure(ctx context.Context) error {
	configs, err := s.bootstrap.Configurations(ctx)
	if err != nil {
		s.logger.Warn("bootstrap configurations", "err", err)
	}
	for _, c := range configs {
		s.loader.Configure(c)
	}
	return err
}
