// SPDX-License-Identifier: MPL-2.0

// Package evaluator selects a module evaluator by file extension.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"sysmod-cli/pkg/evaluator/data"
	"sysmod-cli/pkg/evaluator/shell"
	"sysmod-cli/pkg/loader"
)

// ErrNoEvaluator is returned for a module whose extension has no evaluator
// when the Mux has no fallback.
var ErrNoEvaluator = errors.New("no evaluator for module")

// Mux dispatches on the extension of the module URL's path.
type Mux struct {
	byExt    map[string]loader.Evaluator
	fallback loader.Evaluator
}

// NewMux returns a Mux that uses fallback for unknown extensions. A nil
// fallback makes unknown extensions an error.
func NewMux(fallback loader.Evaluator) *Mux {
	return &Mux{byExt: make(map[string]loader.Evaluator), fallback: fallback}
}

// Handle registers ev for each extension (with or without the leading dot).
func (m *Mux) Handle(ev loader.Evaluator, exts ...string) *Mux {
	for _, ext := range exts {
		m.byExt[normalizeExt(ext)] = ev
	}
	return m
}

// Extensions returns the registered extensions, sorted.
func (m *Mux) Extensions() []string {
	exts := maps.Keys(m.byExt)
	slices.Sort(exts)
	return exts
}

// Evaluate forwards to the evaluator registered for the URL's extension.
func (m *Mux) Evaluate(ctx context.Context, moduleURL string, src []byte) (*loader.Registration, error) {
	ev := m.lookup(moduleURL)
	if ev == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEvaluator, moduleURL)
	}
	return ev.Evaluate(ctx, moduleURL, src)
}

func (m *Mux) lookup(moduleURL string) loader.Evaluator {
	p := moduleURL
	if u, err := url.Parse(moduleURL); err == nil {
		p = u.Path
	}
	if ev, ok := m.byExt[normalizeExt(path.Ext(p))]; ok {
		return ev
	}
	return m.fallback
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Default maps .sh to sh, .json and .cue to cue, .yaml and .yml to yaml and
// .toml to toml. Other extensions are treated as shell modules.
func Default(sh *shell.Evaluator) *Mux {
	return NewMux(sh).
		Handle(sh, "sh").
		Handle(data.CUE(), "json", "cue").
		Handle(data.YAML(), "yaml", "yml").
		Handle(data.TOML(), "toml")
}
