// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"testing"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("fallback to dev when no build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestSubcommandsRegistered(t *testing.T) {
	t.Parallel()

	want := []string{
		"up", "init", "key", "build", "start", "stop", "remove",
		"authorize", "wait", "status", "shell", "config", "docs",
	}
	registered := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestBuildOutputWriter(t *testing.T) {
	t.Parallel()

	// The quiet path must yield an untyped nil so downstream exec wiring
	// falls back to /dev/null instead of inheriting a closed fd.
	if w := buildOutputWriter(false); w != nil {
		t.Fatalf("buildOutputWriter(false) = %v, want nil interface", w)
	}
	if w := buildOutputWriter(true); w != os.Stderr {
		t.Fatalf("buildOutputWriter(true) = %v, want os.Stderr", w)
	}
}
