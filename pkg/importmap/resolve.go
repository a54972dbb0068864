// SPDX-License-Identifier: MPL-2.0

package importmap

import (
	"regexp"
	"strings"
)

// Resolve maps specifier, imported from parent, through m.
//
// The specifier is first normalized when it is absolute or path-like. Scopes
// matching parent are searched in declaration order, then the top-level imports.
// When nothing matches, the normalized specifier is returned; a bare specifier
// with no match reports false.
//
// Targets are returned exactly as stored: a map that was not normalized with
// Parse may yield relative targets, which the caller resolves.
func Resolve(m Map, specifier, parent string) (string, bool) {
	candidate, normalized := ParseURLLike(specifier, parent)
	id := specifier
	if normalized {
		id = candidate
	}

	if target := resolveScopes(&m.Scopes, id, parent); target != "" {
		return target, true
	}
	if target := resolveImports(&m.Imports, id); target != "" {
		return target, true
	}
	if normalized {
		return candidate, true
	}
	return "", false
}

// resolveScopes tries every scope whose prefix matches parent, first declared first.
func resolveScopes(scopes *Scopes, id, parent string) string {
	for prefix, imports := range scopes.All() {
		if !strings.HasPrefix(parent, prefix) || !strings.HasSuffix(prefix, "/") {
			continue
		}
		if target := resolveImports(imports, id); target != "" {
			return target
		}
	}
	return ""
}

// resolveImports returns the target of the first entry matching id, or "".
func resolveImports(imports *Imports, id string) string {
	for key, target := range imports.All() {
		if key == id {
			return target
		}

		if strings.Contains(key, "*") {
			if matched, ok := matchWildcard(key, target, id); ok {
				return matched
			}
		}

		if strings.HasSuffix(key, "/") && strings.HasPrefix(id, key) {
			if matched, ok := ParseURL(id[len(key):], target); ok {
				return matched
			}
		}
	}
	return ""
}

// matchWildcard matches id against a key where each "*" captures one or more
// characters. The match is not anchored. Captures are substituted, in order,
// into the "*" placeholders of target; surplus placeholders become empty.
func matchWildcard(key, target, id string) (string, bool) {
	re, err := wildcardPattern(key)
	if err != nil {
		return "", false
	}
	groups := re.FindStringSubmatch(id)
	if groups == nil {
		return "", false
	}

	var b strings.Builder
	next := 1
	for _, r := range target {
		if r != '*' {
			b.WriteRune(r)
			continue
		}
		if next < len(groups) {
			b.WriteString(groups[next])
		}
		next++
	}
	return b.String(), true
}

// wildcardPattern turns a wildcard key into a regular expression. Only "." is
// escaped; other characters keep their regular-expression meaning.
func wildcardPattern(key string) (*regexp.Regexp, error) {
	pattern := strings.ReplaceAll(key, ".", `\.`)
	pattern = strings.ReplaceAll(pattern, "*", "(.+)")
	return regexp.Compile(pattern)
}
