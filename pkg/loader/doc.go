// SPDX-License-Identifier: MPL-2.0

// Package loader implements a dynamic module loader.
//
// A Loader resolves module identifiers (optionally through an import map),
// retrieves each module's source through a SourceProvider, turns it into a
// Registration through an Evaluator, and drives every module through two
// phases:
//
//   - load: depth-first, pre-order discovery. Each module is fetched and
//     declared exactly once, its dependencies are resolved and their records
//     created, and the module's setters are subscribed to its dependencies'
//     namespaces.
//   - link: depth-first, post-order instantiation. Dependencies execute before
//     their dependents. In a cycle, the module whose traversal re-enters the
//     cycle is skipped and executes when its own call unwinds.
//
// Exports are live bindings: every change to a module's Namespace is pushed
// synchronously to the setters of the modules that depend on it.
//
// A Loader is not safe for concurrent use. Modules may import further modules
// from their execute functions; those imports re-enter the same Loader on the
// calling goroutine.
package loader
