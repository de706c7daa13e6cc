// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestProvider_LoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.cue")
	if err := os.WriteFile(path, []byte(`container_engine: "docker"`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ContainerEngine != "docker" {
		t.Fatalf("expected docker, got %q", cfg.ContainerEngine)
	}
}

func TestProvider_LoadDefaultsFromEmptyDir(t *testing.T) {
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ContainerEngine != "auto" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
