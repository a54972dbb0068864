// SPDX-License-Identifier: MPL-2.0

package evaluator

import (
	"context"
	"errors"
	"slices"
	"testing"

	"sysmod-cli/pkg/evaluator/shell"
	"sysmod-cli/pkg/loader"
)

func TestMux_Dispatch(t *testing.T) {
	t.Parallel()

	var got []string
	named := func(name string) loader.Evaluator {
		return loader.EvaluatorFunc(func(context.Context, string, []byte) (*loader.Registration, error) {
			got = append(got, name)
			return nil, nil
		})
	}

	m := NewMux(named("fallback")).
		Handle(named("sh"), ".sh").
		Handle(named("data"), "json", "YAML")

	for _, u := range []string{
		"file:///a/main.sh",
		"https://cdn.test/conf.JSON?v=2",
		"file:///a/conf.yaml",
		"file:///a/README",
	} {
		if _, err := m.Evaluate(context.Background(), u, nil); err != nil {
			t.Fatalf("Evaluate(%q) error = %v", u, err)
		}
	}

	want := []string{"sh", "data", "data", "fallback"}
	if !slices.Equal(got, want) {
		t.Errorf("dispatch = %v, want %v", got, want)
	}
	if exts := m.Extensions(); !slices.Equal(exts, []string{"json", "sh", "yaml"}) {
		t.Errorf("Extensions() = %v", exts)
	}
}

func TestMux_NoFallback(t *testing.T) {
	t.Parallel()

	_, err := NewMux(nil).Evaluate(context.Background(), "file:///a/b.txt", nil)
	if !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("Evaluate() error = %v, want ErrNoEvaluator", err)
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	m := Default(shell.New(false, false))
	want := []string{"cue", "json", "sh", "toml", "yaml", "yml"}
	if got := m.Extensions(); !slices.Equal(got, want) {
		t.Errorf("Extensions() = %v, want %v", got, want)
	}

	reg, err := m.Evaluate(context.Background(), "file:///a/conf.json", []byte(`{"a": 1}`))
	if err != nil {
		t.Fatalf("Evaluate(json) error = %v", err)
	}
	if len(reg.Dependencies) != 0 {
		t.Errorf("data module has dependencies: %v", reg.Dependencies)
	}
}
