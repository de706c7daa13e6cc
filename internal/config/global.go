// SPDX-License-Identifier: MPL-2.0

package config

// configDirOverride redirects ConfigDir during tests. Rewriting HOME is
// not enough isolation: os.UserHomeDir ignores it on some platforms.
var configDirOverride string

// SetConfigDirOverride points config lookups at dir until Reset is
// called. Test-only.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// Reset restores the platform config directory lookup.
func Reset() {
	configDirOverride = ""
}
