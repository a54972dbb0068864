// SPDX-License-Identifier: MPL-2.0

// Package issue carries user-facing failure context for the sysmod CLI.
//
// ActionableError records what was being attempted, on which resource, and
// what the user can do about it. The issue catalog holds longer Markdown
// guidance, keyed by Id, rendered in the terminal with glamour.
package issue
