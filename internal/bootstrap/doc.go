// SPDX-License-Identifier: MPL-2.0

// Package bootstrap discovers the configurations and initial modules a
// loader applies before its first import.
//
// Three sources are consulted, in order:
//
//   - system.config.cue, system.config.json and system.config.yaml in the
//     scan directory, each shaped as {baseUrl, map: {imports, scopes}, modules};
//   - import-map files named explicitly, each shaped as {imports, scopes};
//   - an HTML page, whose <script type="importmap"> (or "systemjs-importmap")
//     elements carry import maps inline or through src, and whose
//     <script type="module" src="import:ID"> elements name initial modules.
//
// Preloaded module ids configured by the caller come last.
package bootstrap
