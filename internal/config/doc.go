// SPDX-License-Identifier: MPL-2.0

// Package config loads sysmod settings using Viper with CUE as the file format.
//
// Settings come from, in increasing precedence: built-in defaults, the first
// config file found (an explicit path, then sysmod.cue in the working
// directory, then config.cue in the user config directory), and SYSMOD_*
// environment variables (SYSMOD_LOG_LEVEL, SYSMOD_SHELL_ALLOW_EXEC, ...).
// Files are validated against the embedded config_schema.cue.
package config
