// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles CUE and JSON documents, optionally against an
// embedded schema definition, and walks their fields in declaration order.
//
// Import maps are order sensitive, so callers that need ordered objects use
// EachField on the compiled value instead of decoding into a Go map.
package cueutil
