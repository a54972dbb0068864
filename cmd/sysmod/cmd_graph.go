// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sysmod-cli/internal/dag"
	"sysmod-cli/internal/issue"
	"sysmod-cli/pkg/loader"
)

func newGraphCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var allowExec bool
	graphCmd := &cobra.Command{
		Use:   "graph <id>...",
		Short: "Show the module graph in execution order",
		Long: `Import the modules, with their output discarded, and list every
module the registry holds with dependencies before their importers.
Modules that import each other are grouped as a cycle.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd.Context(), flags, sessionOptions{allowExec: allowExec, quiet: true})
			if err != nil {
				return err
			}

			var importErr error
			for _, id := range args {
				if _, err := s.loader.Import(cmd.Context(), id, ""); err != nil {
					importErr = classifyImportError(err, id)
					break
				}
			}

			g := moduleGraph(s.loader.Records())
			printGraph(app.stdout, g, s.loader)
			if cycles := g.Cycles(); len(cycles) > 0 {
				fmt.Fprintln(app.stdout)
				fmt.Fprintln(app.stdout, WarningStyle.Render(fmt.Sprintf("%d cycle(s) found", len(cycles))))
				if flags.verbose {
					if rendered, err := issue.Get(issue.DependencyCycleId).Render(glamourStyle(app.stdout)); err == nil {
						fmt.Fprint(app.stdout, rendered)
					}
				}
			}
			return importErr
		},
	}
	graphCmd.Flags().BoolVar(&allowExec, "allow-exec", false, "let shell modules run host commands")
	return graphCmd
}

// moduleGraph builds the graph of records with edges from each dependency
// to its importer.
func moduleGraph(records []*loader.Record) *dag.Graph {
	g := dag.New()
	for _, r := range records {
		g.AddNode(r.URL())
	}
	for _, r := range records {
		for _, dep := range r.Dependencies() {
			g.AddEdge(dep, r.URL())
		}
	}
	return g
}

func printGraph(w io.Writer, g *dag.Graph, ld *loader.Loader) {
	selfLoops := make(map[string]bool)
	for _, c := range g.Cycles() {
		if len(c) == 1 {
			selfLoops[c[0]] = true
		}
	}

	fmt.Fprintln(w, TitleStyle.Render("Modules (dependencies first)"))
	for i, component := range g.Components() {
		if len(component) == 1 && !selfLoops[component[0]] {
			fmt.Fprintf(w, "%3d. %s%s\n", i+1, CmdStyle.Render(component[0]), status(ld, component[0]))
			continue
		}
		fmt.Fprintf(w, "%3d. %s\n", i+1, cycleStyle.Render("cycle"))
		for _, u := range component {
			fmt.Fprintf(w, "       %s%s\n", CmdStyle.Render(u), status(ld, u))
		}
	}
}

func status(ld *loader.Loader, u string) string {
	r, ok := ld.Record(u)
	if !ok || r.Err() == nil {
		return ""
	}
	return " " + ErrorStyle.Render("failed")
}
