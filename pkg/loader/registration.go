// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"context"
	"fmt"

	"sysmod-cli/pkg/importmap"
)

type (
	// Registration is what an Evaluator produces for a module: the specifiers
	// it depends on, in order, and the function that declares its bindings.
	Registration struct {
		Dependencies []string
		Declare      DeclareFunc
	}

	// DeclareFunc is called once per module, before any module executes.
	// It may export initial values through exp.
	DeclareFunc func(exp Exporter, mctx *Context) (Declaration, error)

	// Declaration is the result of a DeclareFunc.
	//
	// Setters are aligned by position with Registration.Dependencies; a nil
	// entry, or a missing trailing entry, means the module does not observe
	// that dependency's exports.
	Declaration struct {
		Setters []Setter
		Execute ExecuteFunc
	}

	// Setter receives a dependency's namespace, once at declaration time and
	// again after each change.
	Setter func(ns *Namespace)

	// ExecuteFunc runs a module body. It is called at most once.
	ExecuteFunc func(ctx context.Context) error

	// ImportFunc imports a module relative to the importing module.
	ImportFunc func(ctx context.Context, id string) (*Namespace, error)

	// ResolveFunc resolves a specifier relative to the importing module.
	ResolveFunc func(id string) (string, error)

	// Context is handed to a module's DeclareFunc.
	Context struct {
		// ID is the module's resolved URL.
		ID     string
		Import ImportFunc
		Meta   Meta
	}

	// Meta describes the module itself.
	Meta struct {
		URL     string
		Resolve ResolveFunc
	}

	// Exporter publishes a module's bindings.
	Exporter interface {
		// Export binds a single name and returns value.
		Export(name string, value any) any
		// ExportAll binds every entry of values and returns the namespace.
		ExportAll(values map[string]any) *Namespace
	}

	// Evaluator turns module source into a Registration.
	// A nil Registration is a module with no dependencies and nothing to run.
	Evaluator interface {
		Evaluate(ctx context.Context, url string, source []byte) (*Registration, error)
	}

	// SourceProvider retrieves the source text of a module.
	SourceProvider interface {
		FetchText(ctx context.Context, url string) ([]byte, error)
	}

	// BootstrapProvider supplies the configurations and the initial modules
	// applied before the first import.
	BootstrapProvider interface {
		Configurations(ctx context.Context) ([]Configuration, error)
		ModuleIDs(ctx context.Context) ([]string, error)
	}

	// Configuration adjusts a Loader's base URL and import map.
	Configuration struct {
		BaseURL string
		Map     *importmap.Map
	}

	// EvaluatorFunc adapts a function to Evaluator.
	EvaluatorFunc func(ctx context.Context, url string, source []byte) (*Registration, error)

	// SourceFunc adapts a function to SourceProvider.
	SourceFunc func(ctx context.Context, url string) ([]byte, error)
)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, url string, source []byte) (*Registration, error) {
	return f(ctx, url, source)
}

// FetchText calls f.
func (f SourceFunc) FetchText(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// ExportArgs dispatches a dynamically shaped export call: a single map is a
// bulk export, a name followed by a value is a single export. Any other
// arrangement fails with ErrUnsupportedExport.
func ExportArgs(exp Exporter, args ...any) (any, error) {
	switch len(args) {
	case 1:
		if values, ok := args[0].(map[string]any); ok {
			return exp.ExportAll(values), nil
		}
	case 2:
		if name, ok := args[0].(string); ok {
			return exp.Export(name, args[1]), nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedExport, args)
}
