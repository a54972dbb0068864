// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/fang"
	"mvdan.cc/sh/v3/interp"

	"sysmod-cli/internal/issue"
	"sysmod-cli/pkg/loader"
	"sysmod-cli/pkg/source"
)

// exitStatusDenied is the status the shell evaluator reports for a host
// command it refused to run.
const exitStatusDenied = 127

// classifyImportError attaches an operation, suggestions and a catalog issue
// to a loader error. Errors that already carry context pass through.
func classifyImportError(err error, id string) error {
	if err == nil {
		return nil
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ctx := issue.NewErrorContext().WithOperation("import module").WithResource(id).Wrap(err)
	var status interp.ExitStatus
	switch {
	case errors.Is(err, loader.ErrResolution):
		ctx.WithIssue(issue.ResolutionFailedId).
			WithSuggestion("Add an entry for the specifier to an import map").
			WithSuggestion("Use ./ or ../ for modules addressed by path")
	case errors.Is(err, source.ErrUnsupportedScheme):
		ctx.WithIssue(issue.UnsupportedSchemeId).
			WithSuggestion("Map the specifier to a file:, http: or https: URL")
	case errors.Is(err, loader.ErrRetrieval) && errors.Is(err, fs.ErrNotExist):
		ctx.WithIssue(issue.FileNotFoundId).
			WithSuggestion("Check the import map target and the base URL with 'sysmod resolve'")
	case errors.Is(err, loader.ErrRetrieval):
		ctx.WithIssue(issue.RetrievalFailedId).
			WithSuggestion("Check that the server is reachable and the URL is correct")
	case errors.As(err, &status) && status == exitStatusDenied:
		ctx.WithIssue(issue.HostCommandDeniedId).
			WithSuggestion("Pass --allow-exec or set shell.allow_exec in the configuration")
	case errors.Is(err, loader.ErrEvaluation):
		ctx.WithIssue(issue.EvaluationFailedId)
	}
	return ctx.BuildError()
}

// exitCode maps an error to the process exit status. A shell module that
// exits non-zero passes its status through.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var status interp.ExitStatus
	if errors.As(err, &status) && status != 0 {
		return int(status)
	}
	return 1
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// errorHandler prints errors for fang. Verbose output adds the catalog
// guidance linked to the error.
func errorHandler(flags *rootFlagValues) fang.ErrorHandler {
	return func(w io.Writer, _ fang.Styles, err error) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:"), formatErrorForDisplay(err, flags.verbose))
		if !flags.verbose {
			return
		}
		if is := issue.IssueOf(err); is != nil {
			if rendered, renderErr := is.Render(glamourStyle(w)); renderErr == nil {
				fmt.Fprint(w, rendered)
			}
		}
	}
}
