// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride replaces the platform config directory, for tests that
// cannot rely on HOME being honored (macOS CI).
var configDirOverride string

// Reset clears test overrides.
func Reset() {
	configDirOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}
