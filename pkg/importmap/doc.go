// SPDX-License-Identifier: MPL-2.0

// Package importmap implements import-map parsing and specifier resolution.
//
// An import map redirects module specifiers to locations. Top-level imports apply
// everywhere; scoped imports apply only to modules whose location starts with the
// scope prefix. Both mappings keep declaration order, and lookups walk them in that
// order: the first matching entry wins.
//
// # Matching rules
//
// For each entry, in order:
//
//   - exact: the specifier equals the key and the value is returned as-is
//   - wildcard: a key containing "*" matches like a pattern; each "*" in the value
//     receives the corresponding capture
//   - prefix: a key ending in "/" matches specifiers that start with it; the
//     remainder is resolved against the value
//
// Scopes are tried before top-level imports. The first scope whose prefix matches
// the importing location is used, even when a later scope would match more of it.
//
// # Example
//
//	m := importmap.Parse(raw, "file:///srv/app/")
//	target, ok := importmap.Resolve(m, "@ui/button", "file:///srv/app/main.sh")
package importmap
