// SPDX-License-Identifier: MPL-2.0

package importmap

import (
	"bytes"
	"encoding/json"
	"iter"
)

type (
	// Entry is a single specifier -> target pair.
	Entry struct {
		Key   string
		Value string
	}

	// Imports is an ordered specifier -> target mapping.
	// Setting an existing key replaces its value in place, keeping its position.
	// The zero value is an empty mapping ready to use.
	Imports struct {
		keys   []string
		values map[string]string
	}

	// Scopes is an ordered scope-prefix -> Imports mapping.
	// Setting an existing prefix replaces its whole nested mapping.
	Scopes struct {
		keys   []string
		values map[string]*Imports
	}

	// Map is an import map: top-level imports plus location-scoped imports.
	Map struct {
		Imports Imports
		Scopes  Scopes
	}
)

// NewImports builds an Imports mapping from entries, in order.
func NewImports(entries ...Entry) *Imports {
	m := &Imports{}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Set assigns value to key.
func (m *Imports) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the target for key.
func (m *Imports) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *Imports) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// All iterates entries in declaration order.
func (m *Imports) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (m *Imports) Clone() *Imports {
	out := &Imports{}
	for k, v := range m.All() {
		out.Set(k, v)
	}
	return out
}

// MarshalJSON writes the mapping as a JSON object in declaration order.
func (m *Imports) MarshalJSON() ([]byte, error) {
	return marshalOrdered(m.keysOrNil(), func(k string) any { return m.values[k] })
}

func (m *Imports) keysOrNil() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Set replaces the nested mapping for prefix.
func (s *Scopes) Set(prefix string, imports *Imports) {
	if s.values == nil {
		s.values = make(map[string]*Imports)
	}
	if _, ok := s.values[prefix]; !ok {
		s.keys = append(s.keys, prefix)
	}
	if imports == nil {
		imports = &Imports{}
	}
	s.values[prefix] = imports
}

// Get returns the nested mapping for prefix.
func (s *Scopes) Get(prefix string) (*Imports, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[prefix]
	return v, ok
}

// Len returns the number of scopes.
func (s *Scopes) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// All iterates scopes in declaration order.
func (s *Scopes) All() iter.Seq2[string, *Imports] {
	return func(yield func(string, *Imports) bool) {
		if s == nil {
			return
		}
		for _, k := range s.keys {
			if !yield(k, s.values[k]) {
				return
			}
		}
	}
}

// MarshalJSON writes the scopes as a JSON object in declaration order.
func (s *Scopes) MarshalJSON() ([]byte, error) {
	var keys []string
	if s != nil {
		keys = s.keys
	}
	return marshalOrdered(keys, func(k string) any { return s.values[k] })
}

// Clone returns a deep copy of the map.
func (m Map) Clone() Map {
	var out Map
	out.Merge(m)
	return out
}

// Merge applies other on top of m: keys already present are replaced at their
// original position, new keys are appended. A scope declared again replaces the
// whole nested mapping rather than merging into it.
func (m *Map) Merge(other Map) {
	for k, v := range other.Imports.All() {
		m.Imports.Set(k, v)
	}
	for prefix, imports := range other.Scopes.All() {
		m.Scopes.Set(prefix, imports.Clone())
	}
}

// IsEmpty reports whether the map has neither imports nor scopes.
func (m Map) IsEmpty() bool {
	return m.Imports.Len() == 0 && m.Scopes.Len() == 0
}

// MarshalJSON writes {"imports": ..., "scopes": ...} preserving declaration order.
func (m Map) MarshalJSON() ([]byte, error) {
	return marshalOrdered([]string{"imports", "scopes"}, func(k string) any {
		if k == "imports" {
			return &m.Imports
		}
		return &m.Scopes
	})
}

// Parse normalizes a raw import map against base, the way a configuration is
// applied: scope prefixes are resolved against base, and import keys and targets
// are resolved when they are absolute or path-like. Bare entries are kept as-is.
func Parse(raw Map, base string) Map {
	var out Map
	for prefix, imports := range raw.Scopes.All() {
		parsed := prefix
		if u, ok := ParseURL(prefix, base); ok {
			parsed = u
		}
		out.Scopes.Set(parsed, parseImports(imports, base))
	}
	out.Imports = *parseImports(&raw.Imports, base)
	return out
}

func parseImports(in *Imports, base string) *Imports {
	out := &Imports{}
	for key, target := range in.All() {
		parsedKey := key
		if u, ok := ParseURLLike(key, base); ok {
			parsedKey = u
		}
		parsedTarget := target
		if u, ok := ParseURLLike(target, base); ok {
			parsedTarget = u
		}
		out.Set(parsedKey, parsedTarget)
	}
	return out
}

func marshalOrdered(keys []string, value func(string) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(value(k))
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
