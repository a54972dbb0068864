// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	_ "embed"
	"errors"
	"fmt"
	"path"
	"strings"

	"cuelang.org/go/cue"
	"gopkg.in/yaml.v3"

	"sysmod-cli/internal/cueutil"
	"sysmod-cli/pkg/importmap"
)

//go:embed config_schema.cue
var configSchema []byte

// ErrUnknownFormat is returned for a document whose extension is not one of
// cue, json, yaml or yml.
var ErrUnknownFormat = errors.New("unknown document format")

// systemConfig is the decoded form of a system.config document.
type systemConfig struct {
	BaseURL string
	Map     *importmap.Map
	Modules []string
}

// decodeConfig decodes a system.config document, picking the format from
// the extension of name.
func decodeConfig(name string, data []byte) (*systemConfig, error) {
	switch format(name) {
	case "cue", "json":
		v, err := cueutil.Compile(configSchema, "#SystemConfig", data, cueutil.WithFilename(name))
		if err != nil {
			return nil, err
		}
		return configFromCUE(v)
	case "yaml":
		return configFromYAML(name, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// decodeImportMap decodes a bare {imports, scopes} document.
func decodeImportMap(name string, data []byte) (*importmap.Map, error) {
	return decodeImportMapAs(format(name), name, data)
}

func decodeImportMapAs(kind, name string, data []byte) (*importmap.Map, error) {
	switch kind {
	case "cue", "json":
		v, err := cueutil.Compile(configSchema, "#ImportMap", data, cueutil.WithFilename(name))
		if err != nil {
			return nil, err
		}
		return mapFromCUE(v)
	case "yaml":
		root, err := yamlRoot(name, data)
		if err != nil || root == nil {
			return &importmap.Map{}, err
		}
		return mapFromYAML(name, root)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

func format(name string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")); ext {
	case "yml":
		return "yaml"
	default:
		return ext
	}
}

func configFromCUE(v cue.Value) (*systemConfig, error) {
	cfg := &systemConfig{}
	err := cueutil.EachField(v, func(name string, fv cue.Value) error {
		var err error
		switch name {
		case "baseUrl":
			cfg.BaseURL, err = fv.String()
		case "map":
			cfg.Map, err = mapFromCUE(fv)
		case "modules":
			err = fv.Decode(&cfg.Modules)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func mapFromCUE(v cue.Value) (*importmap.Map, error) {
	m := &importmap.Map{}
	err := cueutil.EachField(v, func(name string, fv cue.Value) error {
		switch name {
		case "imports":
			return eachString(fv, m.Imports.Set)
		case "scopes":
			return cueutil.EachField(fv, func(prefix string, sv cue.Value) error {
				imports := &importmap.Imports{}
				if err := eachString(sv, imports.Set); err != nil {
					return err
				}
				m.Scopes.Set(prefix, imports)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func eachString(v cue.Value, set func(key, value string)) error {
	return cueutil.EachField(v, func(key string, fv cue.Value) error {
		s, err := fv.String()
		if err != nil {
			return err
		}
		set(key, s)
		return nil
	})
}

func yamlRoot(name string, data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

func configFromYAML(name string, data []byte) (*systemConfig, error) {
	root, err := yamlRoot(name, data)
	if err != nil {
		return nil, err
	}
	cfg := &systemConfig{}
	if root == nil {
		return cfg, nil
	}

	err = eachPair(name, root, func(key string, value *yaml.Node) error {
		var err error
		switch key {
		case "baseUrl":
			cfg.BaseURL, err = scalar(name, key, value)
		case "map":
			cfg.Map, err = mapFromYAML(name, value)
		case "modules":
			err = value.Decode(&cfg.Modules)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func mapFromYAML(name string, root *yaml.Node) (*importmap.Map, error) {
	m := &importmap.Map{}
	err := eachPair(name, root, func(key string, value *yaml.Node) error {
		switch key {
		case "imports":
			return yamlImports(name, value, &m.Imports)
		case "scopes":
			return eachPair(name, value, func(prefix string, sv *yaml.Node) error {
				imports := &importmap.Imports{}
				if err := yamlImports(name, sv, imports); err != nil {
					return err
				}
				m.Scopes.Set(prefix, imports)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func yamlImports(name string, node *yaml.Node, into *importmap.Imports) error {
	return eachPair(name, node, func(key string, value *yaml.Node) error {
		s, err := scalar(name, key, value)
		if err != nil {
			return err
		}
		into.Set(key, s)
		return nil
	})
}

func eachPair(name string, node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s:%d: expected a mapping", name, node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func scalar(name, key string, node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s:%d: %s: expected a string", name, node.Line, key)
	}
	return node.Value, nil
}
