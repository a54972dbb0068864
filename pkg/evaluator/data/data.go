// SPDX-License-Identifier: MPL-2.0

// Package data evaluates configuration documents as modules.
//
// A data module has no dependencies. When it executes it exports the whole
// document as "default" and, when the document is an object, each top-level
// key under its own name.
package data

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"sysmod-cli/internal/cueutil"
	"sysmod-cli/pkg/loader"
)

type (
	// Evaluator decodes one document format.
	Evaluator struct {
		format string
		decode func(src []byte, name string) (*document, error)
	}

	document struct {
		value  any
		fields []field
	}

	field struct {
		name  string
		value any
	}
)

// CUE returns an Evaluator for CUE documents. JSON is a subset of CUE, so it
// also serves .json modules.
func CUE() *Evaluator {
	return &Evaluator{format: "cue", decode: decodeCUE}
}

// YAML returns an Evaluator for YAML documents.
func YAML() *Evaluator {
	return &Evaluator{format: "yaml", decode: decodeYAML}
}

// TOML returns an Evaluator for TOML documents. Top-level keys are exported
// in sorted order because TOML tables carry no order once decoded.
func TOML() *Evaluator {
	return &Evaluator{format: "toml", decode: decodeTOML}
}

// Evaluate decodes src. Decoding errors surface here rather than at execution.
func (e *Evaluator) Evaluate(_ context.Context, url string, src []byte) (*loader.Registration, error) {
	doc, err := e.decode(src, url)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", e.format, err)
	}

	return &loader.Registration{
		Declare: func(exp loader.Exporter, _ *loader.Context) (loader.Declaration, error) {
			return loader.Declaration{Execute: func(context.Context) error {
				exp.Export(loader.DefaultExport, doc.value)
				for _, f := range doc.fields {
					exp.Export(f.name, f.value)
				}
				return nil
			}}, nil
		},
	}, nil
}

func decodeCUE(src []byte, name string) (*document, error) {
	v, err := cueutil.Compile(nil, "", src, cueutil.WithFilename(name))
	if err != nil {
		return nil, err
	}

	doc := &document{}
	if err := v.Decode(&doc.value); err != nil {
		return nil, err
	}
	err = cueutil.EachField(v, func(key string, fv cue.Value) error {
		var value any
		if err := fv.Decode(&value); err != nil {
			return err
		}
		doc.fields = append(doc.fields, field{name: key, value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeYAML(src []byte, _ string) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, err
	}

	doc := &document{}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return doc, nil
	}
	body := root.Content[0]
	if err := body.Decode(&doc.value); err != nil {
		return nil, err
	}
	if body.Kind != yaml.MappingNode {
		return doc, nil
	}

	for i := 0; i+1 < len(body.Content); i += 2 {
		var fv any
		if err := body.Content[i+1].Decode(&fv); err != nil {
			return nil, err
		}
		doc.fields = append(doc.fields, field{name: body.Content[i].Value, value: fv})
	}
	return doc, nil
}

func decodeTOML(src []byte, _ string) (*document, error) {
	var m map[string]any
	if err := toml.NewDecoder(bytes.NewReader(src)).Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}

	keys := maps.Keys(m)
	slices.Sort(keys)

	doc := &document{value: m}
	for _, k := range keys {
		doc.fields = append(doc.fields, field{name: k, value: m[k]})
	}
	return doc, nil
}
