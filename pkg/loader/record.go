// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"slices"

	"golang.org/x/exp/maps"
)

type (
	// LoadState is the discovery state of a Record.
	LoadState int

	// LinkState is the execution state of a Record.
	LinkState int

	// Record is the registry entry of one module, keyed by its resolved URL.
	Record struct {
		loader *Loader
		url    string

		loadState LoadState
		linkState LinkState

		deps        []*Record
		ns          *Namespace
		subscribers []Setter
		execute     ExecuteFunc

		// visitedLoad and visitedLink guard traversals rooted at this record.
		// They persist so repeated imports of a processed graph are no-ops.
		visitedLoad map[string]struct{}
		visitedLink map[string]struct{}

		// failed is the error that stopped this module's load step or body.
		// A failed module never reports success afterwards.
		failed error
	}
)

const (
	Unloaded LoadState = iota
	Loaded
)

const (
	Unlinked LinkState = iota
	Linked
)

func (s LoadState) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

func (s LinkState) String() string {
	if s == Linked {
		return "linked"
	}
	return "unlinked"
}

func newRecord(l *Loader, url string) *Record {
	return &Record{
		loader:      l,
		url:         url,
		ns:          newNamespace(),
		visitedLoad: make(map[string]struct{}),
		visitedLink: make(map[string]struct{}),
	}
}

// URL returns the module's resolved location.
func (r *Record) URL() string { return r.url }

// LoadState returns the discovery state.
func (r *Record) LoadState() LoadState { return r.loadState }

// LinkState returns the execution state.
func (r *Record) LinkState() LinkState { return r.linkState }

// Namespace returns the module's live namespace.
func (r *Record) Namespace() *Namespace { return r.ns }

// Err returns the error that failed this module, if any.
func (r *Record) Err() error { return r.failed }

// Dependencies returns the URLs of the module's dependencies in declaration order.
func (r *Record) Dependencies() []string {
	urls := make([]string, len(r.deps))
	for i, d := range r.deps {
		urls[i] = d.url
	}
	return urls
}

func (r *Record) process(ctx context.Context) (*Namespace, error) {
	err := r.processLoad(ctx, r.visitedLoad)
	if err == nil {
		err = r.processLink(ctx, r.visitedLink)
	}
	if err != nil {
		// A failed pass must be walked again so the next import reaches the
		// failed record instead of a half-populated guard set.
		clear(r.visitedLoad)
		clear(r.visitedLink)
		return nil, err
	}
	return r.ns, nil
}

// processLoad loads r before its dependencies.
func (r *Record) processLoad(ctx context.Context, visited map[string]struct{}) error {
	if _, ok := visited[r.url]; ok {
		return nil
	}
	visited[r.url] = struct{}{}

	if r.failed != nil {
		return r.failed
	}
	if r.loadState == Unloaded {
		r.loadState = Loaded
		if err := r.load(ctx); err != nil {
			r.failed = err
			return err
		}
	}

	for _, dep := range r.deps {
		if err := dep.processLoad(ctx, visited); err != nil {
			return err
		}
	}
	return nil
}

// processLink executes r after its dependencies.
func (r *Record) processLink(ctx context.Context, visited map[string]struct{}) error {
	if _, ok := visited[r.url]; ok {
		return nil
	}
	visited[r.url] = struct{}{}

	if r.failed != nil {
		return r.failed
	}
	for _, dep := range r.deps {
		if err := dep.processLink(ctx, visited); err != nil {
			return err
		}
	}

	if r.linkState == Linked {
		return nil
	}
	r.linkState = Linked
	if r.execute == nil {
		return nil
	}

	r.loader.logger.Debug("execute", "url", r.url)
	if err := r.execute(ctx); err != nil {
		r.failed = &EvaluationError{URL: r.url, Phase: PhaseExecute, Cause: err}
		return r.failed
	}
	return nil
}

// load fetches, evaluates and declares the module, then wires its dependencies.
func (r *Record) load(ctx context.Context) error {
	l := r.loader
	l.logger.Debug("load", "url", r.url)

	source, err := l.source.FetchText(ctx, r.url)
	if err != nil {
		return &RetrievalError{URL: r.url, Cause: err}
	}

	reg, err := l.evaluator.Evaluate(ctx, r.url, source)
	if err != nil {
		return &EvaluationError{URL: r.url, Phase: PhaseEvaluate, Cause: err}
	}
	if reg == nil {
		reg = &Registration{}
	}

	var decl Declaration
	if reg.Declare != nil {
		decl, err = reg.Declare(exporter{r}, r.context())
		if err != nil {
			return &EvaluationError{URL: r.url, Phase: PhaseDeclare, Cause: err}
		}
	}

	for i, spec := range reg.Dependencies {
		depURL, err := l.Resolve(spec, r.url)
		if err != nil {
			return err
		}
		dep := l.getOrCreate(depURL)
		if !slices.Contains(r.deps, dep) {
			r.deps = append(r.deps, dep)
		}
		if i < len(decl.Setters) && decl.Setters[i] != nil {
			setter := decl.Setters[i]
			dep.subscribers = append(dep.subscribers, setter)
			setter(dep.ns)
		}
	}

	if decl.Execute != nil {
		r.execute = decl.Execute
	}
	return nil
}

func (r *Record) context() *Context {
	l := r.loader
	return &Context{
		ID: r.url,
		Import: func(ctx context.Context, id string) (*Namespace, error) {
			return l.Import(ctx, id, r.url)
		},
		Meta: Meta{
			URL: r.url,
			Resolve: func(id string) (string, error) {
				return l.Resolve(id, r.url)
			},
		},
	}
}

func (r *Record) notify() {
	r.loader.logger.Debug("notify", "url", r.url, "subscribers", len(r.subscribers))
	for _, setter := range r.subscribers {
		setter(r.ns)
	}
}

func (r *Record) export(name string, value any) any {
	if r.ns.set(name, value) {
		r.notify()
	}
	return value
}

func (r *Record) exportAll(values map[string]any) *Namespace {
	keys := maps.Keys(values)
	slices.Sort(keys)

	changed := false
	for _, k := range keys {
		if r.ns.set(k, values[k]) {
			changed = true
		}
	}
	if changed {
		r.notify()
	}
	return r.ns
}

// exporter is the Exporter bound to one record.
type exporter struct{ r *Record }

func (e exporter) Export(name string, value any) any { return e.r.export(name, value) }

func (e exporter) ExportAll(values map[string]any) *Namespace { return e.r.exportAll(values) }
