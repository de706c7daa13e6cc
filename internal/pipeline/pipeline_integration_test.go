// SPDX-License-Identifier: MPL-2.0

// Integration coverage for the full provisioning pipeline against a real
// container engine. These tests build an actual image and start a real
// container, so they are skipped in short mode and when no engine is
// available.

package pipeline

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"

	"sshbox-cli/internal/container"
	"sshbox-cli/internal/health"
	"sshbox-cli/internal/runner"
	"sshbox-cli/pkg/boxfile"
)

// checkTestcontainersAvailable safely checks if testcontainers can be used.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// freePort reserves a loopback port and releases it for the container.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	_ = ln.Close()
	return port
}

func TestPipeline_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	engine, err := container.AutoDetectEngine()
	if err != nil {
		t.Skipf("skipping pipeline integration test: no container engine available: %v", err)
	}
	if !engine.Available() {
		t.Skip("skipping pipeline integration test: container engine not available")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping pipeline integration test: testcontainers provider not available")
	}

	spec := &boxfile.ImageSpec{
		Name:      "itest",
		BaseImage: "ubuntu:22.04",
		Packages:  []string{"ca-certificates"},
		User:      "itest",
		HostPort:  freePort(t),
	}

	store := runner.NewStore(filepath.Join(t.TempDir(), "boxes.toml"))
	p := NewFromEngine(engine, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Clean up the container and image regardless of outcome.
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), time.Minute)
		defer cleanupCancel()
		run := runner.NewRunner(engine, store, nil)
		_ = run.Remove(cleanupCtx, spec.Name, true)
	})

	result, err := p.Up(ctx, spec, Options{
		KeyPath:      filepath.Join(t.TempDir(), "id_ed25519"),
		WaitTimeout:  2 * time.Minute,
		WaitInterval: time.Second,
	})
	if err != nil {
		t.Fatalf("Up: %v", err)
	}

	if result.Health.State != health.StateReady {
		t.Fatalf("box never became reachable: %+v", result.Health)
	}

	// Stop and remove must both succeed and be repeatable.
	run := runner.NewRunner(engine, store, nil)
	if err := run.Stop(ctx, spec.Name); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := run.Stop(ctx, spec.Name); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if err := run.Remove(ctx, spec.Name, true); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := run.Remove(ctx, spec.Name, true); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}
