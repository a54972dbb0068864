// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for sysmod.
//
// The root command wires an App (configuration, output writers, logger) into
// the run, resolve, graph, importmap and config subcommands. Each command
// builds a fresh module loader from the effective configuration, so a
// process never shares a registry between invocations.
package cmd
