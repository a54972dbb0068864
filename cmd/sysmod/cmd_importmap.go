// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sysmod-cli/internal/issue"
)

func newImportMapCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var strict bool
	importMapCmd := &cobra.Command{
		Use:   "importmap",
		Short: "Print the merged import map",
		Long: `Print the import map the loader would use, as JSON, after every
bootstrap configuration has been applied. Keys are normalized to URLs and
keep their declaration order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags, sessionOptions{})
			if err != nil {
				return err
			}
			if err := s.configure(cmd.Context()); err != nil {
				bootErr := issue.NewErrorContext().
					WithOperation("read import maps").
					WithIssue(issue.ImportMapInvalidId).
					WithSuggestion("Fix or remove the listed files").
					Wrap(err).
					BuildError()
				if strict {
					return bootErr
				}
				fmt.Fprintln(app.stderr, WarningStyle.Render("Warning:"), formatErrorForDisplay(bootErr, flags.verbose))
			}

			raw, err := json.Marshal(s.loader.ImportMap())
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, raw, "", "  "); err != nil {
				return err
			}
			out.WriteByte('\n')
			_, err = out.WriteTo(app.stdout)
			return err
		},
	}
	importMapCmd.Flags().BoolVar(&strict, "strict", false, "fail when an import map or the HTML page cannot be read")
	return importMapCmd
}
