// SPDX-License-Identifier: MPL-2.0

package importmap

import (
	"net/url"
	"strings"
)

// IsPathLike reports whether id is written as a path: it starts with "/", "./" or "../".
// Path-like specifiers are resolved against the importing location; other
// non-absolute specifiers are bare and can only be resolved through the map.
func IsPathLike(id string) bool {
	return strings.HasPrefix(id, "/") || strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../")
}

// ParseURL parses id as an absolute URL, or as a reference relative to base when
// base is non-empty. The result is normalized (dot segments removed). It reports
// false when id is neither absolute nor resolvable against an absolute base.
func ParseURL(id, base string) (string, bool) {
	ref, err := url.Parse(id)
	if err != nil {
		return "", false
	}
	if ref.IsAbs() {
		return normalize(ref), true
	}
	if base == "" {
		return "", false
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return "", false
	}
	return baseURL.ResolveReference(ref).String(), true
}

// ParseURLLike parses id relative to base only when id is path-like. Any other id
// must already be an absolute URL.
func ParseURLLike(id, base string) (string, bool) {
	if IsPathLike(id) {
		return ParseURL(id, base)
	}
	return ParseURL(id, "")
}

// normalize cleans the dot segments of an absolute URL.
func normalize(u *url.URL) string {
	if u.Opaque != "" {
		return u.String()
	}
	return (&url.URL{}).ResolveReference(u).String()
}
