// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"sysmod-cli/pkg/importmap"
)

type (
	// Config holds the collaborators of a Loader.
	Config struct {
		// Source retrieves module text. Required.
		Source SourceProvider
		// Evaluator turns module text into registrations. Required.
		Evaluator Evaluator
		// Bootstrap is queried once, on the first Import. Optional.
		Bootstrap BootstrapProvider
		// BaseURL is the initial base location. It defaults to the working
		// directory as a file URL.
		BaseURL string
		// Logger receives debug traces of resolution and traversal. Optional.
		Logger *log.Logger
	}

	// Loader owns the module registry, the import map and the base location.
	Loader struct {
		source    SourceProvider
		evaluator Evaluator
		bootstrap BootstrapProvider
		logger    *log.Logger

		root      string
		baseURL   string
		importMap importmap.Map

		registry     map[string]*Record
		records      []*Record
		bootstrapped bool
	}
)

// New creates a Loader.
func New(cfg Config) (*Loader, error) {
	if cfg.Source == nil {
		return nil, errors.New("loader: source provider is required")
	}
	if cfg.Evaluator == nil {
		return nil, errors.New("loader: evaluator is required")
	}

	base := cfg.BaseURL
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		base = DirURL(wd)
	}
	root, ok := importmap.ParseURL(base, "")
	if !ok {
		return nil, fmt.Errorf("loader: base url %q is not absolute", base)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Loader{
		source:    cfg.Source,
		evaluator: cfg.Evaluator,
		bootstrap: cfg.Bootstrap,
		logger:    logger,
		root:      root,
		baseURL:   root,
		registry:  make(map[string]*Record),
	}, nil
}

// DirURL converts a directory path into a file URL ending in "/".
func DirURL(dir string) string {
	u := FileURL(dir)
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

// FileURL converts a file path into a file URL.
func FileURL(path string) string {
	p := filepath.ToSlash(filepath.Clean(path))
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// Configure applies cfg. A base URL that is neither absolute nor path-like is
// ignored. The import map is normalized against the (possibly updated) base
// URL and merged into the accumulated map.
func (l *Loader) Configure(cfg Configuration) {
	if cfg.BaseURL != "" {
		if u, ok := importmap.ParseURLLike(cfg.BaseURL, l.root); ok {
			l.baseURL = u
		} else {
			l.logger.Warn("ignoring base url", "base_url", cfg.BaseURL)
		}
	}
	if cfg.Map != nil {
		l.importMap.Merge(importmap.Parse(*cfg.Map, l.baseURL))
	}
}

// BaseURL returns the current base location.
func (l *Loader) BaseURL() string {
	return l.baseURL
}

// ImportMap returns a copy of the accumulated import map.
func (l *Loader) ImportMap() importmap.Map {
	return l.importMap.Clone()
}

// Resolve maps id, imported from parent, to a location. An empty parent means
// the base URL.
func (l *Loader) Resolve(id, parent string) (string, error) {
	if parent == "" {
		parent = l.baseURL
	}

	if target, ok := importmap.Resolve(l.importMap, id, parent); ok {
		l.logger.Debug("resolved", "id", id, "parent", parent, "url", target)
		return target, nil
	}
	if u, ok := importmap.ParseURLLike(id, parent); ok {
		return u, nil
	}
	return "", &ResolutionError{Specifier: id, Parent: parent}
}

// Import loads, links and executes the module id and everything it depends
// on, and returns its namespace. An empty parent means the base URL.
//
// The first call applies the bootstrap configurations and imports the
// bootstrap modules before resolving id.
func (l *Loader) Import(ctx context.Context, id, parent string) (*Namespace, error) {
	if !l.bootstrapped {
		l.bootstrapped = true
		if err := l.runBootstrap(ctx); err != nil {
			return nil, err
		}
	}

	u, err := l.Resolve(id, parent)
	if err != nil {
		return nil, err
	}
	return l.getOrCreate(u).process(ctx)
}

func (l *Loader) runBootstrap(ctx context.Context) error {
	if l.bootstrap == nil {
		return nil
	}

	configs, err := l.bootstrap.Configurations(ctx)
	if err != nil {
		l.logger.Warn("bootstrap configurations", "err", err)
	}
	for _, cfg := range configs {
		l.Configure(cfg)
	}

	ids, err := l.bootstrap.ModuleIDs(ctx)
	if err != nil {
		l.logger.Warn("bootstrap modules", "err", err)
	}
	for _, id := range ids {
		if _, err := l.Import(ctx, id, ""); err != nil {
			return err
		}
	}
	return nil
}

// Record returns the registry entry for a resolved URL.
func (l *Loader) Record(url string) (*Record, bool) {
	r, ok := l.registry[url]
	return r, ok
}

// Has reports whether a record exists for a resolved URL.
func (l *Loader) Has(url string) bool {
	_, ok := l.registry[url]
	return ok
}

// Records returns every record in the order it was first requested.
func (l *Loader) Records() []*Record {
	out := make([]*Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Loader) getOrCreate(url string) *Record {
	if r, ok := l.registry[url]; ok {
		return r
	}
	r := newRecord(l, url)
	l.registry[url] = r
	l.records = append(l.records, r)
	return r
}
