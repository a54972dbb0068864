// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize bounds the documents Compile accepts (5MB).
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	options struct {
		maxFileSize int64
		concrete    bool
		filename    string
	}

	// Option configures Compile.
	Option func(*options)
)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(o *options) { o.maxFileSize = size }
}

// WithConcrete controls whether every value must be concrete. Default true.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// WithFilename names the document in error messages.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// Compile compiles data and, when def is not empty, unifies it with the
// definition def of schema before validating.
func Compile(schema []byte, def string, data []byte, opts ...Option) (cue.Value, error) {
	o := options{maxFileSize: DefaultMaxFileSize, concrete: true, filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return cue.Value{}, err
	}

	cctx := cuecontext.New()
	value := cctx.CompileBytes(data, cue.Filename(o.filename))
	if err := value.Err(); err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}

	if def != "" {
		schemaValue := cctx.CompileBytes(schema)
		if err := schemaValue.Err(); err != nil {
			return cue.Value{}, fmt.Errorf("internal error: compile schema: %w", err)
		}
		root := schemaValue.LookupPath(cue.ParsePath(def))
		if err := root.Err(); err != nil {
			return cue.Value{}, fmt.Errorf("internal error: schema definition %s: %w", def, err)
		}
		value = root.Unify(value)
	}

	var err error
	if o.concrete {
		err = value.Validate(cue.Concrete(true))
	} else {
		err = value.Validate()
	}
	if err != nil {
		return cue.Value{}, FormatError(err, o.filename)
	}
	return value, nil
}

// Decode compiles data like Compile and decodes the result into a T.
func Decode[T any](schema []byte, def string, data []byte, opts ...Option) (*T, error) {
	value, err := Compile(schema, def, data, opts...)
	if err != nil {
		return nil, err
	}
	var out T
	if err := value.Decode(&out); err != nil {
		return nil, FormatError(err, filenameOf(opts))
	}
	return &out, nil
}

// EachField calls fn for every regular field of the struct v, in declaration
// order. A v that is not a struct yields no fields.
func EachField(v cue.Value, fn func(name string, field cue.Value) error) error {
	if v.IncompleteKind() != cue.StructKind {
		return nil
	}
	iter, err := v.Fields()
	if err != nil {
		return err
	}
	for iter.Next() {
		if err := fn(iter.Selector().Unquoted(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

// FormatError rewrites a CUE error as "<file>: <path>: <message>", one line
// per underlying error.
func FormatError(err error, filename string) error {
	if err == nil {
		return nil
	}

	all := cueerrors.Errors(err)
	if len(all) == 0 {
		return fmt.Errorf("%s: %w", filename, err)
	}

	lines := make([]string, 0, len(all))
	for _, e := range all {
		msg := e.Error()
		if p := formatPath(cueerrors.Path(e)); p != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, p), ":"))
			msg = p + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filename, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filename, strings.Join(lines, "\n  "))
}

// formatPath renders ["scopes", "0", "x"] as "scopes[0].x".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			sb.WriteString("[" + part + "]")
		case i > 0:
			sb.WriteString("." + part)
		default:
			sb.WriteString(part)
		}
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize fails when data is larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}

func filenameOf(opts []Option) string {
	o := options{filename: "<input>"}
	for _, opt := range opts {
		opt(&o)
	}
	return o.filename
}
