// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for PGO profile generation.
// They cover the hot paths of sysmod:
//   - import-map normalization and resolution
//   - bootstrap configuration decoding (CUE, JSON, YAML)
//   - graph traversal through the loader, for chains and cycles
//   - shell and data module evaluation
//
// To generate a profile, run:
//
//	go test ./internal/benchmark -bench . -cpuprofile default.pgo
package benchmark
