// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/pflag"

	"sshbox-cli/internal/access"
	"sshbox-cli/internal/imagebuild"
	"sshbox-cli/internal/issue"
	"sshbox-cli/internal/pipeline"
	"sshbox-cli/internal/runner"
)

func TestIssueFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		wantID issue.Id
		wantOK bool
	}{
		{"port in use", fmt.Errorf("start: %w", &runner.PortInUseError{Port: 2222, Owner: "dev"}), issue.HostPortInUseId, true},
		{"build failure", fmt.Errorf("up: %w", imagebuild.ErrBuild), issue.ImageBuildFailedId, true},
		{"access denied", &access.AccessDeniedError{User: "dev", Cause: errors.New("exec failed")}, issue.ContainerUnreachableId, true},
		{"not ready", fmt.Errorf("health: %w", pipeline.ErrNotReady), issue.SSHNotReadyId, true},
		{"permission denied", fmt.Errorf("write: %w", fs.ErrPermission), issue.PermissionDeniedId, true},
		{"unmapped", errors.New("something else"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			id, ok := issueFor(tt.err)
			if ok != tt.wantOK || id != tt.wantID {
				t.Fatalf("issueFor(%v) = (%v, %v), want (%v, %v)", tt.err, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestGlamourStyle(t *testing.T) {
	// Not parallel: mutates the package-level config.
	orig := cfg.UI.ColorScheme
	t.Cleanup(func() { cfg.UI.ColorScheme = orig })

	tests := []struct {
		scheme string
		want   string
	}{
		{"dark", styles.DarkStyle},
		{"light", styles.LightStyle},
		{"none", styles.NoTTYStyle},
		{"auto", styles.AutoStyle},
	}
	for _, tt := range tests {
		cfg.UI.ColorScheme = tt.scheme
		if got := glamourStyle(); got != tt.want {
			t.Errorf("glamourStyle() with scheme %q = %q, want %q", tt.scheme, got, tt.want)
		}
	}
}

func TestResolveWaitTimeout(t *testing.T) {
	t.Parallel()

	newFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("wait", pflag.ContinueOnError)
		fs.Duration("timeout", 0, "")
		return fs
	}

	t.Run("unset flag falls back to config", func(t *testing.T) {
		t.Parallel()
		if got := resolveWaitTimeout(newFlags(), 0); got != cfg.Health.Timeout() {
			t.Fatalf("resolveWaitTimeout = %v, want config default %v", got, cfg.Health.Timeout())
		}
	})

	t.Run("explicit zero requests a single probe", func(t *testing.T) {
		t.Parallel()
		fs := newFlags()
		if err := fs.Set("timeout", "0"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if got := resolveWaitTimeout(fs, 0); got != 0 {
			t.Fatalf("resolveWaitTimeout = %v, want 0", got)
		}
	})

	t.Run("explicit value wins over config", func(t *testing.T) {
		t.Parallel()
		fs := newFlags()
		if err := fs.Set("timeout", "5s"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if got := resolveWaitTimeout(fs, 5*time.Second); got != 5*time.Second {
			t.Fatalf("resolveWaitTimeout = %v, want 5s", got)
		}
	})
}
