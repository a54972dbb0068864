// SPDX-License-Identifier: MPL-2.0

// Package shell evaluates POSIX shell modules with the mvdan/sh interpreter.
//
// A shell module declares its static dependencies with top-level import
// statements whose words are literals:
//
//	import util ./util.sh   # binds util to the module's namespace
//	import ./side-effect.sh # dependency without a binding
//
// The body runs once, after its dependencies, with these builtins:
//
//	provide NAME VALUE        export a single value
//	provide K=V [K=V...]      export several values at once
//	get NAME KEY              print KEY from the namespace bound to NAME
//	import [NAME] SPECIFIER   import SPECIFIER at run time (static imports are no-ops)
//	resolve SPECIFIER         print the location SPECIFIER resolves to
//
// SYSMOD_URL holds the module URL and SYSMOD_DIR its directory. Other commands
// run on the host only when AllowExec is set.
package shell
