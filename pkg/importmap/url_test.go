// SPDX-License-Identifier: MPL-2.0

package importmap

import "testing"

func TestParseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		id     string
		base   string
		want   string
		wantOK bool
	}{
		{"absolute is normalized", "file:///a/b/../c.sh", "", "file:///a/c.sh", true},
		{"dot relative", "./x.sh", "file:///root/dir/main.sh", "file:///root/dir/x.sh", true},
		{"parent relative", "../x.sh", "file:///root/dir/main.sh", "file:///root/x.sh", true},
		{"root relative", "/x.sh", "https://example.com/a/b.sh", "https://example.com/x.sh", true},
		{"bare without base", "lodash", "", "", false},
		{"bare against base", "lodash", "file:///root/", "file:///root/lodash", true},
		{"relative base", "./x.sh", "relative/base", "", false},
		{"wildcard survives", "./abc/*/xyz/*.js", "file:///root/", "file:///root/abc/*/xyz/*.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseURL(tt.id, tt.base)
			if ok != tt.wantOK {
				t.Fatalf("ParseURL(%q, %q) ok = %v, want %v", tt.id, tt.base, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseURL(%q, %q) = %q, want %q", tt.id, tt.base, got, tt.want)
			}
		})
	}
}

func TestParseURLLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		id     string
		base   string
		want   string
		wantOK bool
	}{
		{"bare is not resolved", "lodash", "file:///root/", "", false},
		{"scoped bare is not resolved", "@foo/bar", "file:///root/", "", false},
		{"absolute ignores base", "https://cdn.test/a.js", "file:///root/", "https://cdn.test/a.js", true},
		{"path-like uses base", "./a.js", "file:///root/", "file:///root/a.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseURLLike(tt.id, tt.base)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseURLLike(%q, %q) = (%q, %v), want (%q, %v)", tt.id, tt.base, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsPathLike(t *testing.T) {
	t.Parallel()

	for id, want := range map[string]bool{
		"/a":     true,
		"./a":    true,
		"../a":   true,
		"a":      false,
		".a":     false,
		"@foo/a": false,
		"":       false,
	} {
		if got := IsPathLike(id); got != want {
			t.Errorf("IsPathLike(%q) = %v, want %v", id, got, want)
		}
	}
}
