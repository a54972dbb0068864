// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"sysmod-cli/pkg/importmap"
)

const testBase = "file:///root/"

// testGraph is an in-memory module set keyed by URL.
type testGraph struct {
	modules map[string]*Registration
	fetches map[string]int
	evals   map[string]int
	order   []string
}

func newTestGraph() *testGraph {
	return &testGraph{
		modules: make(map[string]*Registration),
		fetches: make(map[string]int),
		evals:   make(map[string]int),
	}
}

// add registers a module under testBase that records its execution and
// exports its own name.
func (g *testGraph) add(name string, deps ...string) {
	g.modules[testBase+name] = &Registration{
		Dependencies: deps,
		Declare: func(exp Exporter, _ *Context) (Declaration, error) {
			return Declaration{Execute: func(context.Context) error {
				g.order = append(g.order, name)
				exp.Export("name", name)
				return nil
			}}, nil
		},
	}
}

func (g *testGraph) loader(t *testing.T, bootstrap BootstrapProvider) *Loader {
	t.Helper()

	l, err := New(Config{
		Source: SourceFunc(func(_ context.Context, url string) ([]byte, error) {
			g.fetches[url]++
			if _, ok := g.modules[url]; !ok {
				return nil, fmt.Errorf("no such module: %s", url)
			}
			return []byte(url), nil
		}),
		Evaluator: EvaluatorFunc(func(_ context.Context, url string, _ []byte) (*Registration, error) {
			g.evals[url]++
			return g.modules[url], nil
		}),
		Bootstrap: bootstrap,
		BaseURL:   testBase,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Evaluator: EvaluatorFunc(nil)}); err == nil {
		t.Error("New() without source should fail")
	}
	if _, err := New(Config{Source: SourceFunc(nil)}); err == nil {
		t.Error("New() without evaluator should fail")
	}
	if _, err := New(Config{Source: SourceFunc(nil), Evaluator: EvaluatorFunc(nil), BaseURL: "relative/"}); err == nil {
		t.Error("New() with a relative base URL should fail")
	}
}

func TestImport_AcyclicOrder(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("a.sh", "./b.sh", "./c.sh")
	g.add("b.sh", "./d.sh")
	g.add("c.sh", "./d.sh")
	g.add("d.sh")
	l := g.loader(t, nil)

	ns, err := l.Import(context.Background(), "./a.sh", "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if v, _ := ns.Get("name"); v != "a.sh" {
		t.Errorf("name = %v, want a.sh", v)
	}

	want := []string{"d.sh", "b.sh", "c.sh", "a.sh"}
	if !slices.Equal(g.order, want) {
		t.Errorf("execution order = %v, want %v", g.order, want)
	}
	for _, r := range l.Records() {
		if r.LoadState() != Loaded || r.LinkState() != Linked {
			t.Errorf("%s: state = %s/%s, want loaded/linked", r.URL(), r.LoadState(), r.LinkState())
		}
	}

	a, ok := l.Record(testBase + "a.sh")
	if !ok {
		t.Fatal("record for a.sh missing")
	}
	if got := a.Dependencies(); !slices.Equal(got, []string{testBase + "b.sh", testBase + "c.sh"}) {
		t.Errorf("a.sh dependencies = %v", got)
	}
}

func TestImport_TwoCycle(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	var seenByA, seenByB []any

	g.modules[testBase+"a.sh"] = &Registration{
		Dependencies: []string{"./b.sh"},
		Declare: func(exp Exporter, _ *Context) (Declaration, error) {
			return Declaration{
				Setters: []Setter{func(ns *Namespace) {
					v, _ := ns.Get("b")
					seenByA = append(seenByA, v)
				}},
				Execute: func(context.Context) error {
					g.order = append(g.order, "a")
					exp.Export("a", 1)
					return nil
				},
			}, nil
		},
	}
	g.modules[testBase+"b.sh"] = &Registration{
		Dependencies: []string{"./a.sh"},
		Declare: func(exp Exporter, _ *Context) (Declaration, error) {
			return Declaration{
				Setters: []Setter{func(ns *Namespace) {
					v, _ := ns.Get("a")
					seenByB = append(seenByB, v)
				}},
				Execute: func(context.Context) error {
					g.order = append(g.order, "b")
					exp.Export("b", 2)
					return nil
				},
			}, nil
		},
	}
	l := g.loader(t, nil)

	nsA, err := l.Import(context.Background(), "./a.sh", "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if !slices.Equal(g.order, []string{"b", "a"}) {
		t.Errorf("execution order = %v, want [b a]", g.order)
	}
	if got := nsA.Keys(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("a namespace keys = %v, want [a]", got)
	}
	b, _ := l.Record(testBase + "b.sh")
	if got := b.Namespace().Keys(); !slices.Equal(got, []string{"b"}) {
		t.Errorf("b namespace keys = %v, want [b]", got)
	}
	if b.LinkState() != Linked {
		t.Errorf("b link state = %s, want linked", b.LinkState())
	}

	// Each setter fires once at declaration, then once per change.
	if want := []any{nil, 2}; !slices.Equal(seenByA, want) {
		t.Errorf("a observed b = %v, want %v", seenByA, want)
	}
	if want := []any{nil, 1}; !slices.Equal(seenByB, want) {
		t.Errorf("b observed a = %v, want %v", seenByB, want)
	}
}

func TestImport_ReimportReturnsSameNamespace(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("a.sh", "./b.sh")
	g.add("b.sh")
	l := g.loader(t, nil)
	ctx := context.Background()

	first, err := l.Import(ctx, "./a.sh", "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	second, err := l.Import(ctx, testBase+"a.sh", "")
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}

	if first != second {
		t.Error("re-import returned a different namespace")
	}
	if g.fetches[testBase+"a.sh"] != 1 || g.evals[testBase+"a.sh"] != 1 {
		t.Errorf("a.sh fetched %d times, evaluated %d times, want 1/1", g.fetches[testBase+"a.sh"], g.evals[testBase+"a.sh"])
	}
	if !slices.Equal(g.order, []string{"b.sh", "a.sh"}) {
		t.Errorf("execution order = %v", g.order)
	}

	// A dependency imported on its own is already processed.
	if _, err := l.Import(ctx, "./b.sh", ""); err != nil {
		t.Fatalf("Import(b) error = %v", err)
	}
	if len(g.order) != 2 || g.evals[testBase+"b.sh"] != 1 {
		t.Errorf("b.sh re-ran: order = %v, evals = %d", g.order, g.evals[testBase+"b.sh"])
	}
}

// exportingGraph builds a.sh -> b.sh where b.sh runs body with its exporter
// and a.sh counts the notifications it receives.
func exportingGraph(t *testing.T, body func(exp Exporter)) (notifications int) {
	t.Helper()

	g := newTestGraph()
	calls := 0
	g.modules[testBase+"a.sh"] = &Registration{
		Dependencies: []string{"./b.sh"},
		Declare: func(Exporter, *Context) (Declaration, error) {
			return Declaration{Setters: []Setter{func(*Namespace) { calls++ }}}, nil
		},
	}
	g.modules[testBase+"b.sh"] = &Registration{
		Declare: func(exp Exporter, _ *Context) (Declaration, error) {
			return Declaration{Execute: func(context.Context) error {
				body(exp)
				return nil
			}}, nil
		},
	}
	if _, err := g.loader(t, nil).Import(context.Background(), "./a.sh", ""); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	// The first call is the declaration-time delivery.
	return calls - 1
}

func TestExport_Idempotence(t *testing.T) {
	t.Parallel()

	shared := map[string]any{"k": "v"}
	tests := []struct {
		name string
		body func(exp Exporter)
		want int
	}{
		{"same bulk twice", func(exp Exporter) {
			exp.ExportAll(map[string]any{"x": 1})
			exp.ExportAll(map[string]any{"x": 1})
		}, 1},
		{"bulk value changes", func(exp Exporter) {
			exp.ExportAll(map[string]any{"x": 1})
			exp.ExportAll(map[string]any{"x": 2})
		}, 2},
		{"single twice", func(exp Exporter) {
			exp.Export("x", "a")
			exp.Export("x", "a")
		}, 1},
		{"bulk notifies once for many keys", func(exp Exporter) {
			exp.ExportAll(map[string]any{"x": 1, "y": 2, "z": 3})
		}, 1},
		{"same map value", func(exp Exporter) {
			exp.Export("m", shared)
			exp.Export("m", shared)
		}, 1},
		{"equal but distinct map values", func(exp Exporter) {
			exp.Export("m", map[string]any{"k": "v"})
			exp.Export("m", map[string]any{"k": "v"})
		}, 2},
		{"marker only", func(exp Exporter) {
			exp.ExportAll(map[string]any{"__esModule": true})
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exportingGraph(t, tt.body); got != tt.want {
				t.Errorf("notifications = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExport_ESModuleMarker(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.modules[testBase+"a.sh"] = &Registration{
		Declare: func(exp Exporter, _ *Context) (Declaration, error) {
			exp.ExportAll(map[string]any{"__esModule": true, "default": "x"})
			return Declaration{}, nil
		},
	}
	ns, err := g.loader(t, nil).Import(context.Background(), "./a.sh", "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !ns.ESModule() {
		t.Error("ESModule() = false, want true")
	}
	if got := ns.Keys(); !slices.Equal(got, []string{"default"}) {
		t.Errorf("Keys() = %v, want [default]", got)
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	l := g.loader(t, nil)

	raw := importmap.Map{}
	raw.Imports.Set("@foo", "./abc/a.js")
	raw.Imports.Set("@foo/*/bar/*", "./abc/*/xyz/*.js")
	raw.Imports.Set("dep", "/global/dep.sh")
	raw.Scopes.Set("/app/", importmap.NewImports(importmap.Entry{Key: "dep", Value: "/app/vendor/dep.sh"}))
	l.Configure(Configuration{Map: &raw})

	tests := []struct {
		name   string
		id     string
		parent string
		want   string
	}{
		{"exact", "@foo", "file:///elsewhere/x.sh", "file:///root/abc/a.js"},
		{"wildcard", "@foo/a/bar/b", testBase, "file:///root/abc/a/xyz/b.js"},
		{"scoped", "dep", "file:///app/main.sh", "file:///app/vendor/dep.sh"},
		{"outside scope", "dep", "file:///lib/main.sh", "file:///global/dep.sh"},
		{"relative", "./x.sh", "file:///root/sub/y.sh", "file:///root/sub/x.sh"},
		{"default parent", "./x.sh", "", "file:///root/x.sh"},
		{"absolute", "https://cdn.test/m.sh", "", "https://cdn.test/m.sh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := l.Resolve(tt.id, tt.parent)
			if err != nil {
				t.Fatalf("Resolve(%q, %q) error = %v", tt.id, tt.parent, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.id, tt.parent, got, tt.want)
			}
		})
	}
}

func TestConfigure_TargetsFixedAtConfigureTime(t *testing.T) {
	t.Parallel()

	l := newTestGraph().loader(t, nil)

	raw := importmap.Map{}
	raw.Imports.Set("@foo", "./abc/a.js")
	l.Configure(Configuration{Map: &raw})
	l.Configure(Configuration{BaseURL: "file:///moved/"})

	for _, parent := range []string{"", "file:///other/dir/x.js", "https://cdn.test/lib/m.sh"} {
		got, err := l.Resolve("@foo", parent)
		if err != nil {
			t.Fatalf("Resolve(@foo, %q) error = %v", parent, err)
		}
		if got != "file:///root/abc/a.js" {
			t.Errorf("Resolve(@foo, %q) = %q, want file:///root/abc/a.js", parent, got)
		}
	}

	// Maps applied after the move use the new base.
	later := importmap.Map{}
	later.Imports.Set("@bar", "./b.js")
	l.Configure(Configuration{Map: &later})
	if got, _ := l.Resolve("@bar", "file:///other/dir/x.js"); got != "file:///moved/b.js" {
		t.Errorf("Resolve(@bar) = %q, want file:///moved/b.js", got)
	}
}

func TestResolve_BareSpecifierFails(t *testing.T) {
	t.Parallel()

	l := newTestGraph().loader(t, nil)

	_, err := l.Resolve("lodash", "")
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("Resolve() error = %v, want ErrResolution", err)
	}
	var re *ResolutionError
	if !errors.As(err, &re) || re.Specifier != "lodash" || re.Parent != testBase {
		t.Errorf("ResolutionError = %+v", re)
	}

	if _, err := l.Import(context.Background(), "lodash", ""); !errors.Is(err, ErrResolution) {
		t.Errorf("Import() error = %v, want ErrResolution", err)
	}
}

func TestConfigure_BaseURL(t *testing.T) {
	t.Parallel()

	l := newTestGraph().loader(t, nil)

	l.Configure(Configuration{BaseURL: "./lib/"})
	if got := l.BaseURL(); got != "file:///root/lib/" {
		t.Errorf("BaseURL() = %q, want file:///root/lib/", got)
	}

	// Bare values are ignored.
	l.Configure(Configuration{BaseURL: "lib"})
	if got := l.BaseURL(); got != "file:///root/lib/" {
		t.Errorf("BaseURL() after bare override = %q", got)
	}

	// Path-like overrides are relative to the initial root, not the current base.
	l.Configure(Configuration{BaseURL: "./other/"})
	if got := l.BaseURL(); got != "file:///root/other/" {
		t.Errorf("BaseURL() = %q, want file:///root/other/", got)
	}
}

func TestConfigure_MapAccumulates(t *testing.T) {
	t.Parallel()

	l := newTestGraph().loader(t, nil)

	first := importmap.Map{}
	first.Imports.Set("a", "https://one.test/a.sh")
	first.Imports.Set("b", "https://one.test/b.sh")
	l.Configure(Configuration{Map: &first})

	second := importmap.Map{}
	second.Imports.Set("a", "https://two.test/a.sh")
	l.Configure(Configuration{Map: &second})

	m := l.ImportMap()
	if v, _ := m.Imports.Get("a"); v != "https://two.test/a.sh" {
		t.Errorf("a = %q, want the later declaration", v)
	}
	if v, _ := m.Imports.Get("b"); v != "https://one.test/b.sh" {
		t.Errorf("b = %q, want it kept", v)
	}

	// The returned map is a copy.
	m.Imports.Set("c", "x")
	if again := l.ImportMap(); again.Imports.Len() != 2 {
		t.Error("ImportMap() exposed internal state")
	}
}

func TestImport_RetrievalFailure(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("a.sh", "./b.sh", "./missing.sh")
	g.add("b.sh")
	l := g.loader(t, nil)
	ctx := context.Background()

	_, err := l.Import(ctx, "./a.sh", "")
	if !errors.Is(err, ErrRetrieval) {
		t.Fatalf("Import() error = %v, want ErrRetrieval", err)
	}
	var re *RetrievalError
	if !errors.As(err, &re) || re.URL != testBase+"missing.sh" {
		t.Errorf("RetrievalError = %+v", re)
	}
	if len(g.order) != 0 {
		t.Errorf("modules executed after a failed load: %v", g.order)
	}

	// Siblings loaded before the failure stay loaded.
	b, _ := l.Record(testBase + "b.sh")
	if b.LoadState() != Loaded {
		t.Errorf("b.sh load state = %s, want loaded", b.LoadState())
	}

	// The failure is not forgotten.
	if _, err := l.Import(ctx, "./a.sh", ""); !errors.Is(err, ErrRetrieval) {
		t.Errorf("second Import() error = %v, want ErrRetrieval", err)
	}
	if g.fetches[testBase+"missing.sh"] != 1 {
		t.Errorf("missing.sh fetched %d times, want 1", g.fetches[testBase+"missing.sh"])
	}
}

func TestImport_EvaluationFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name  string
		reg   *Registration
		phase Phase
	}{
		{"declare", &Registration{Declare: func(Exporter, *Context) (Declaration, error) {
			return Declaration{}, boom
		}}, PhaseDeclare},
		{"execute", &Registration{Declare: func(Exporter, *Context) (Declaration, error) {
			return Declaration{Execute: func(context.Context) error { return boom }}, nil
		}}, PhaseExecute},
		{"unsupported export", &Registration{Declare: func(exp Exporter, _ *Context) (Declaration, error) {
			_, err := ExportArgs(exp, 1, 2, 3)
			return Declaration{}, err
		}}, PhaseDeclare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGraph()
			g.modules[testBase+"a.sh"] = tt.reg
			_, err := g.loader(t, nil).Import(context.Background(), "./a.sh", "")

			if !errors.Is(err, ErrEvaluation) {
				t.Fatalf("Import() error = %v, want ErrEvaluation", err)
			}
			var ee *EvaluationError
			if !errors.As(err, &ee) || ee.Phase != tt.phase || ee.URL != testBase+"a.sh" {
				t.Errorf("EvaluationError = %+v, want phase %s", ee, tt.phase)
			}
		})
	}
}

func TestImport_EvaluatorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("syntax error")
	l, err := New(Config{
		Source: SourceFunc(func(context.Context, string) ([]byte, error) { return []byte("x"), nil }),
		Evaluator: EvaluatorFunc(func(context.Context, string, []byte) (*Registration, error) {
			return nil, boom
		}),
		BaseURL: testBase,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = l.Import(context.Background(), "./a.sh", "")
	var ee *EvaluationError
	if !errors.As(err, &ee) || ee.Phase != PhaseEvaluate {
		t.Fatalf("Import() error = %v, want evaluate failure", err)
	}
	if !errors.Is(err, boom) {
		t.Error("cause is not reachable through errors.Is")
	}
}

func TestImport_ExecuteRunsOnceAfterFailure(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	runs := 0
	g.modules[testBase+"a.sh"] = &Registration{Declare: func(Exporter, *Context) (Declaration, error) {
		return Declaration{Execute: func(context.Context) error {
			runs++
			return errors.New("exit status 1")
		}}, nil
	}}
	l := g.loader(t, nil)

	for range 2 {
		if _, err := l.Import(context.Background(), "./a.sh", ""); err == nil {
			t.Fatal("Import() succeeded, want failure")
		}
	}
	if runs != 1 {
		t.Errorf("execute ran %d times, want 1", runs)
	}
}

func TestImport_NilRegistration(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.modules[testBase+"empty.sh"] = nil
	l := g.loader(t, nil)

	ns, err := l.Import(context.Background(), "./empty.sh", "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if ns.Len() != 0 {
		t.Errorf("namespace = %v, want empty", ns.Keys())
	}
}

func TestImport_SettersAlignWithDependencies(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("b.sh")
	g.add("c.sh")
	var fromC []any
	g.modules[testBase+"a.sh"] = &Registration{
		Dependencies: []string{"./b.sh", "./c.sh", "./b.sh"},
		Declare: func(Exporter, *Context) (Declaration, error) {
			return Declaration{Setters: []Setter{nil, func(ns *Namespace) {
				v, _ := ns.Get("name")
				fromC = append(fromC, v)
			}}}, nil
		},
	}
	l := g.loader(t, nil)

	if _, err := l.Import(context.Background(), "./a.sh", ""); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if want := []any{nil, "c.sh"}; !slices.Equal(fromC, want) {
		t.Errorf("setter for c.sh saw %v, want %v", fromC, want)
	}
	a, _ := l.Record(testBase + "a.sh")
	if got := a.Dependencies(); len(got) != 2 {
		t.Errorf("dependencies = %v, want duplicates removed", got)
	}
}

func TestContext_ImportAndResolve(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("lib/util.sh")
	var resolved string
	var dynamic *Namespace
	g.modules[testBase+"lib/main.sh"] = &Registration{
		Declare: func(_ Exporter, mctx *Context) (Declaration, error) {
			if mctx.ID != testBase+"lib/main.sh" || mctx.Meta.URL != mctx.ID {
				return Declaration{}, fmt.Errorf("unexpected context %+v", mctx)
			}
			return Declaration{Execute: func(ctx context.Context) error {
				var err error
				if resolved, err = mctx.Meta.Resolve("./util.sh"); err != nil {
					return err
				}
				dynamic, err = mctx.Import(ctx, "./util.sh")
				return err
			}}, nil
		},
	}
	l := g.loader(t, nil)

	if _, err := l.Import(context.Background(), "./lib/main.sh", ""); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if resolved != testBase+"lib/util.sh" {
		t.Errorf("Meta.Resolve = %q", resolved)
	}
	if v, _ := dynamic.Get("name"); v != "lib/util.sh" {
		t.Errorf("dynamic import namespace = %v", dynamic.Map())
	}
}

type fakeBootstrap struct {
	configs      []Configuration
	configsErr   error
	ids          []string
	idsErr       error
	configsCalls int
}

func (b *fakeBootstrap) Configurations(context.Context) ([]Configuration, error) {
	b.configsCalls++
	return b.configs, b.configsErr
}

func (b *fakeBootstrap) ModuleIDs(context.Context) ([]string, error) {
	return b.ids, b.idsErr
}

func TestImport_Bootstrap(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("lib/boot.sh")
	g.add("lib/app.sh")

	m := importmap.Map{}
	m.Imports.Set("app", "./app.sh")
	boot := &fakeBootstrap{
		configs: []Configuration{{BaseURL: "./lib/", Map: &m}},
		ids:     []string{"./boot.sh"},
	}
	l := g.loader(t, boot)
	ctx := context.Background()

	ns, err := l.Import(ctx, "app", "")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if v, _ := ns.Get("name"); v != "lib/app.sh" {
		t.Errorf("name = %v, want lib/app.sh", v)
	}
	if !slices.Equal(g.order, []string{"lib/boot.sh", "lib/app.sh"}) {
		t.Errorf("execution order = %v", g.order)
	}

	if _, err := l.Import(ctx, "app", ""); err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if boot.configsCalls != 1 {
		t.Errorf("bootstrap queried %d times, want 1", boot.configsCalls)
	}
}

func TestImport_BootstrapErrorsAreIgnored(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("a.sh")
	boot := &fakeBootstrap{
		configsErr: errors.New("malformed system.config.json"),
		idsErr:     errors.New("unreadable page"),
	}

	if _, err := g.loader(t, boot).Import(context.Background(), "./a.sh", ""); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
}

func TestImport_BootstrapModuleFailure(t *testing.T) {
	t.Parallel()

	g := newTestGraph()
	g.add("a.sh")
	boot := &fakeBootstrap{ids: []string{"./missing.sh"}}

	if _, err := g.loader(t, boot).Import(context.Background(), "./a.sh", ""); !errors.Is(err, ErrRetrieval) {
		t.Fatalf("Import() error = %v, want ErrRetrieval", err)
	}
}

func TestFileURL(t *testing.T) {
	t.Parallel()

	if got := DirURL("/srv/mods"); got != "file:///srv/mods/" {
		t.Errorf("DirURL = %q", got)
	}
	if got := DirURL("/"); got != "file:///" {
		t.Errorf("DirURL(/) = %q", got)
	}
	if got := FileURL("/srv/my mods/a.sh"); got != "file:///srv/my%20mods/a.sh" {
		t.Errorf("FileURL = %q", got)
	}
}
