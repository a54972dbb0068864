// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"sysmod-cli/pkg/loader"
	"sysmod-cli/pkg/source"
)

const (
	// EnvURL names the environment variable holding the module URL.
	EnvURL = "SYSMOD_URL"
	// EnvDir names the environment variable holding the module directory.
	EnvDir = "SYSMOD_DIR"
)

// ErrUnknownBinding is reported by get for a name no import bound.
var ErrUnknownBinding = errors.New("unknown binding")

type (
	// Evaluator turns shell source into module registrations.
	Evaluator struct {
		// AllowExec lets commands that are not module builtins run on the host.
		AllowExec bool
		// InheritEnv passes the process environment to module bodies.
		InheritEnv bool
		// Stdout and Stderr receive the output of module bodies.
		Stdout io.Writer
		Stderr io.Writer
		// Logger receives debug traces.
		Logger *log.Logger
	}

	// staticImport is a top-level import statement with literal words.
	staticImport struct {
		name      string
		specifier string
	}

	// module is the run-time state of one evaluated shell module.
	module struct {
		ev       *Evaluator
		url      string
		prog     *syntax.File
		statics  map[staticImport]struct{}
		bindings map[string]*loader.Namespace
		exp      loader.Exporter
		mctx     *loader.Context
	}
)

// New returns an Evaluator writing to the process stdout and stderr.
func New(allowExec, inheritEnv bool) *Evaluator {
	return &Evaluator{
		AllowExec:  allowExec,
		InheritEnv: inheritEnv,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// Evaluate parses source and returns its registration.
func (e *Evaluator) Evaluate(_ context.Context, moduleURL string, src []byte) (*loader.Registration, error) {
	prog, err := syntax.NewParser().Parse(bytes.NewReader(src), moduleURL)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	imports := staticImports(prog)
	m := &module{
		ev:       e,
		url:      moduleURL,
		prog:     prog,
		statics:  make(map[staticImport]struct{}, len(imports)),
		bindings: make(map[string]*loader.Namespace),
	}

	deps := make([]string, len(imports))
	for i, imp := range imports {
		deps[i] = imp.specifier
		m.statics[imp] = struct{}{}
	}

	return &loader.Registration{
		Dependencies: deps,
		Declare: func(exp loader.Exporter, mctx *loader.Context) (loader.Declaration, error) {
			m.exp = exp
			m.mctx = mctx
			setters := make([]loader.Setter, len(imports))
			for i, imp := range imports {
				if imp.name == "" {
					continue
				}
				name := imp.name
				setters[i] = func(ns *loader.Namespace) { m.bindings[name] = ns }
			}
			return loader.Declaration{Setters: setters, Execute: m.run}, nil
		},
	}, nil
}

// staticImports returns the top-level import statements of prog whose words
// are all literals, in source order.
func staticImports(prog *syntax.File) []staticImport {
	var out []staticImport
	for _, stmt := range prog.Stmts {
		call, ok := stmt.Cmd.(*syntax.CallExpr)
		if !ok || len(call.Assigns) > 0 || stmt.Background || stmt.Negated {
			continue
		}
		words := make([]string, 0, len(call.Args))
		for _, w := range call.Args {
			lit, ok := literal(w)
			if !ok {
				words = nil
				break
			}
			words = append(words, lit)
		}
		if imp, ok := parseImport(words); ok {
			out = append(out, imp)
		}
	}
	return out
}

func parseImport(words []string) (staticImport, bool) {
	if len(words) == 0 || words[0] != "import" {
		return staticImport{}, false
	}
	switch len(words) {
	case 2:
		return staticImport{specifier: words[1]}, true
	case 3:
		return staticImport{name: words[1], specifier: words[2]}, true
	}
	return staticImport{}, false
}

// literal returns the value of a word made only of literal and quoted literal parts.
func literal(w *syntax.Word) (string, bool) {
	var b strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			b.WriteString(p.Value)
		case *syntax.SglQuoted:
			b.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, inner := range p.Parts {
				lit, ok := inner.(*syntax.Lit)
				if !ok {
					return "", false
				}
				b.WriteString(lit.Value)
			}
		default:
			return "", false
		}
	}
	return b.String(), true
}

func (m *module) run(ctx context.Context) error {
	runner, err := interp.New(
		m.dir(),
		interp.Env(expand.ListEnviron(m.environ()...)),
		interp.StdIO(nil, m.ev.stdout(), m.ev.stderr()),
		interp.ExecHandlers(m.execHandler),
	)
	if err != nil {
		return fmt.Errorf("create interpreter: %w", err)
	}
	return runner.Run(ctx, m.prog)
}

func (m *module) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		switch args[0] {
		case "import":
			return m.importBuiltin(ctx, args[1:])
		case "provide":
			return m.provideBuiltin(args[1:])
		case "get":
			return m.getBuiltin(ctx, args[1:])
		case "resolve":
			return m.resolveBuiltin(ctx, args[1:])
		}
		if !m.ev.AllowExec {
			hc := interp.HandlerCtx(ctx)
			fmt.Fprintf(hc.Stderr, "%s: command not allowed in module %s\n", args[0], m.url)
			return interp.ExitStatus(127)
		}
		return next(ctx, args)
	}
}

func (m *module) importBuiltin(ctx context.Context, args []string) error {
	imp, ok := parseImport(append([]string{"import"}, args...))
	if !ok {
		return usage(ctx, "import [NAME] SPECIFIER")
	}
	if _, static := m.statics[imp]; static {
		return nil
	}

	m.ev.logger().Debug("dynamic import", "module", m.url, "specifier", imp.specifier)
	ns, err := m.mctx.Import(ctx, imp.specifier)
	if err != nil {
		return err
	}
	if imp.name != "" {
		m.bindings[imp.name] = ns
	}
	return nil
}

func (m *module) provideBuiltin(args []string) error {
	var err error
	switch {
	case len(args) > 0 && allAssignments(args):
		values := make(map[string]any, len(args))
		for _, a := range args {
			k, v, _ := strings.Cut(a, "=")
			values[k] = v
		}
		_, err = loader.ExportArgs(m.exp, values)
	default:
		dyn := make([]any, len(args))
		for i, a := range args {
			dyn[i] = a
		}
		_, err = loader.ExportArgs(m.exp, dyn...)
	}
	return err
}

func allAssignments(args []string) bool {
	for _, a := range args {
		if k, _, ok := strings.Cut(a, "="); !ok || k == "" {
			return false
		}
	}
	return true
}

func (m *module) getBuiltin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage(ctx, "get NAME KEY")
	}
	hc := interp.HandlerCtx(ctx)
	ns, ok := m.bindings[args[0]]
	if !ok {
		fmt.Fprintf(hc.Stderr, "get: %v: %s\n", ErrUnknownBinding, args[0])
		return interp.ExitStatus(2)
	}
	v, ok := ns.Get(args[1])
	if !ok {
		return interp.ExitStatus(1)
	}
	fmt.Fprintln(hc.Stdout, v)
	return nil
}

func (m *module) resolveBuiltin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage(ctx, "resolve SPECIFIER")
	}
	hc := interp.HandlerCtx(ctx)
	u, err := m.mctx.Meta.Resolve(args[0])
	if err != nil {
		fmt.Fprintf(hc.Stderr, "resolve: %v\n", err)
		return interp.ExitStatus(1)
	}
	fmt.Fprintln(hc.Stdout, u)
	return nil
}

func usage(ctx context.Context, synopsis string) error {
	fmt.Fprintf(interp.HandlerCtx(ctx).Stderr, "usage: %s\n", synopsis)
	return interp.ExitStatus(2)
}

// dir runs file modules from their own directory when it exists locally.
func (m *module) dir() interp.RunnerOption {
	if p, err := source.PathFromURL(m.url); err == nil {
		d := path.Dir(strings.ReplaceAll(p, "\\", "/"))
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			return interp.Dir(d)
		}
	}
	return interp.Dir("")
}

func (m *module) environ() []string {
	var env []string
	if m.ev.InheritEnv {
		env = os.Environ()
	}
	return append(env, EnvURL+"="+m.url, EnvDir+"="+moduleDir(m.url))
}

// moduleDir returns the directory part of a module URL.
func moduleDir(moduleURL string) string {
	if p, err := source.PathFromURL(moduleURL); err == nil {
		return path.Dir(strings.ReplaceAll(p, "\\", "/"))
	}
	u, err := url.Parse(moduleURL)
	if err != nil {
		return ""
	}
	return u.ResolveReference(&url.URL{Path: "./"}).String()
}

func (e *Evaluator) stdout() io.Writer {
	if e.Stdout == nil {
		return io.Discard
	}
	return e.Stdout
}

func (e *Evaluator) stderr() io.Writer {
	if e.Stderr == nil {
		return io.Discard
	}
	return e.Stderr
}

func (e *Evaluator) logger() *log.Logger {
	if e.Logger == nil {
		return log.New(io.Discard)
	}
	return e.Logger
}
