// SPDX-License-Identifier: MPL-2.0

// Package source retrieves module text for the loader: from a filesystem for
// file URLs, over HTTP for http and https URLs, and through a Mux that picks
// a provider by URL scheme.
package source
