// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"iter"
	"math"
	"reflect"
	"slices"

	"golang.org/x/exp/maps"
)

const (
	// DefaultExport is the conventional name of a module's main export.
	DefaultExport = "default"

	// esModuleKey is the interop marker. It is recorded as a flag instead of
	// an entry, so it never shows up in Keys or All.
	esModuleKey = "__esModule"
)

// Namespace holds a module's exported bindings in the order they were first set.
//
// Only the owning module changes its namespace, through the Exporter handed to
// its DeclareFunc. Entries are never removed. Dependents hold the same pointer
// and observe updates through their setters.
type Namespace struct {
	keys     []string
	values   map[string]any
	esModule bool
}

func newNamespace() *Namespace {
	return &Namespace{values: make(map[string]any)}
}

// Get returns the current value bound to name.
func (n *Namespace) Get(name string) (any, bool) {
	v, ok := n.values[name]
	return v, ok
}

// Has reports whether name is bound.
func (n *Namespace) Has(name string) bool {
	_, ok := n.values[name]
	return ok
}

// Default returns the value of the "default" export.
func (n *Namespace) Default() (any, bool) {
	return n.Get(DefaultExport)
}

// ESModule reports whether the module flagged itself with the interop marker.
func (n *Namespace) ESModule() bool {
	return n.esModule
}

// Keys returns the bound names in first-set order.
func (n *Namespace) Keys() []string {
	return slices.Clone(n.keys)
}

// Len returns the number of bound names.
func (n *Namespace) Len() int {
	return len(n.keys)
}

// Map returns a snapshot of the bindings.
func (n *Namespace) Map() map[string]any {
	return maps.Clone(n.values)
}

// All iterates the bindings in first-set order.
func (n *Namespace) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range n.keys {
			if !yield(k, n.values[k]) {
				return
			}
		}
	}
}

// set binds name to value and reports whether the namespace changed.
func (n *Namespace) set(name string, value any) bool {
	if name == esModuleKey {
		if truthy(value) {
			n.esModule = true
		}
		return false
	}
	old, ok := n.values[name]
	if ok && sameValue(old, value) {
		return false
	}
	if !ok {
		n.keys = append(n.keys, name)
	}
	n.values[name] = value
	return true
}

// sameValue is strict identity: comparable values compare with ==, maps,
// pointers and channels by address, slices by backing array and length.
// Functions are never identical, and neither are values of other
// non-comparable types.
func sameValue(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !ta.Comparable() {
		return false
	}

	// Structs and arrays with interface fields may still hold incomparable values.
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Complex64, reflect.Complex128:
		return !rv.IsZero()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}
