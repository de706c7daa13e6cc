// SPDX-License-Identifier: MPL-2.0

// Package runner starts and tracks dev box containers.
//
// Each started box gets a Handle persisted in a per-user store, which is
// what makes stop/remove/status work from any later invocation. Stop and
// Remove are idempotent: acting on a container the engine no longer knows
// about succeeds and prunes the stale handle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"sshbox-cli/internal/container"
	"sshbox-cli/pkg/boxfile"
)

// containerNamePrefix namespaces our containers in shared engine listings.
const containerNamePrefix = "sshbox-"

var (
	// ErrPortInUse is the sentinel error wrapped by PortInUseError.
	ErrPortInUse = errors.New("host port already in use")

	// ErrBoxNotFound is returned when no handle is tracked for a box name.
	ErrBoxNotFound = errors.New("box not found")
)

type (
	// PortInUseError is returned when the requested host port is already
	// claimed, either by another tracked box or by a foreign process the
	// engine reported.
	PortInUseError struct {
		Port  int
		Owner string
		Cause error
	}

	// BoxStatus pairs a tracked handle with its live engine state.
	BoxStatus struct {
		Handle Handle
		State  container.ContainerState
	}

	// Runner drives the container engine and keeps the handle store in
	// sync with what it started.
	Runner struct {
		engine container.Engine
		store  *Store
		logger *log.Logger
	}
)

// Error implements the error interface.
func (e *PortInUseError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("host port %d is already in use by box %q", e.Port, e.Owner)
	}
	return fmt.Sprintf("host port %d is already in use: %v", e.Port, e.Cause)
}

// Unwrap returns the cause so callers can inspect the chain.
func (e *PortInUseError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrPortInUse.
func (e *PortInUseError) Is(target error) bool { return target == ErrPortInUse }

// NewRunner creates a Runner on top of the given engine and store.
func NewRunner(engine container.Engine, store *Store, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{engine: engine, store: store, logger: logger}
}

// ContainerName returns the engine-side name used for a box.
func ContainerName(boxName string) string {
	return containerNamePrefix + boxName
}

// Start launches a detached container for the spec using the given image
// tag and records its handle.
//
// Starting a box whose container is already running returns the existing
// handle. A stale handle whose container the engine no longer knows about
// is replaced. The requested host port must not be claimed by another
// running tracked box; engine-level port collisions (a foreign process
// binding the port) also surface as PortInUseError.
func (r *Runner) Start(ctx context.Context, spec *boxfile.ImageSpec, image string) (*Handle, error) {
	if existing, ok, err := r.store.Get(spec.Name); err != nil {
		return nil, err
	} else if ok {
		state, err := r.engine.State(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("inspecting box %q: %w", spec.Name, err)
		}
		if state == container.StateRunning {
			r.logger.Debug("box already running", "name", spec.Name, "id", existing.ID)
			return &existing, nil
		}
		// Stopped or missing: clean up before starting fresh.
		if state == container.StateStopped {
			if err := r.engine.Remove(ctx, existing.ID, true); err != nil {
				return nil, fmt.Errorf("removing stopped box %q: %w", spec.Name, err)
			}
		}
		if err := r.store.Delete(spec.Name); err != nil {
			return nil, err
		}
	}

	if err := r.checkPortFree(ctx, spec); err != nil {
		return nil, err
	}

	opts := container.StartOptions{
		Image: image,
		Name:  ContainerName(spec.Name),
		Ports: []container.PortMapping{{
			HostPort:      container.NetworkPort(spec.HostPort),
			ContainerPort: container.NetworkPort(spec.SSHPort()),
		}},
		Volumes: volumeMounts(spec),
	}

	r.logger.Info("starting box", "name", spec.Name, "image", image, "port", spec.HostPort)

	id, err := r.engine.Start(ctx, opts)
	if err != nil {
		if isPortCollision(err) {
			return nil, &PortInUseError{Port: spec.HostPort, Cause: err}
		}
		return nil, fmt.Errorf("starting box %q: %w", spec.Name, err)
	}

	handle := Handle{
		ID:            id,
		Name:          spec.Name,
		Image:         image,
		HostPort:      spec.HostPort,
		ContainerPort: spec.SSHPort(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.store.Put(handle); err != nil {
		// The container is up but untracked; stop it so we don't leak.
		_ = r.engine.Remove(ctx, id, true)
		return nil, err
	}
	return &handle, nil
}

// Stop stops a box's container. Unknown names and already-stopped or
// missing containers are no-ops.
func (r *Runner) Stop(ctx context.Context, name string) error {
	handle, ok, err := r.store.Get(name)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	state, err := r.engine.State(ctx, handle.ID)
	if err != nil {
		return fmt.Errorf("inspecting box %q: %w", name, err)
	}
	if state != container.StateRunning {
		return nil
	}

	r.logger.Info("stopping box", "name", name, "id", handle.ID)
	if err := r.engine.Stop(ctx, handle.ID); err != nil {
		return fmt.Errorf("stopping box %q: %w", name, err)
	}
	return nil
}

// Remove removes a box's container and drops its handle. Unknown names
// are no-ops; a handle whose container the engine no longer knows about
// is simply pruned.
func (r *Runner) Remove(ctx context.Context, name string, force bool) error {
	handle, ok, err := r.store.Get(name)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	state, err := r.engine.State(ctx, handle.ID)
	if err != nil {
		return fmt.Errorf("inspecting box %q: %w", name, err)
	}
	if state != container.StateMissing {
		r.logger.Info("removing box", "name", name, "id", handle.ID)
		if err := r.engine.Remove(ctx, handle.ID, force); err != nil {
			return fmt.Errorf("removing box %q: %w", name, err)
		}
	}
	return r.store.Delete(name)
}

// Status returns the handle and live state for one box.
func (r *Runner) Status(ctx context.Context, name string) (*BoxStatus, error) {
	handle, ok, err := r.store.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("box %q: %w", name, ErrBoxNotFound)
	}
	state, err := r.engine.State(ctx, handle.ID)
	if err != nil {
		return nil, fmt.Errorf("inspecting box %q: %w", name, err)
	}
	return &BoxStatus{Handle: handle, State: state}, nil
}

// List returns the status of every tracked box.
func (r *Runner) List(ctx context.Context) ([]BoxStatus, error) {
	handles, err := r.store.List()
	if err != nil {
		return nil, err
	}
	statuses := make([]BoxStatus, 0, len(handles))
	for _, h := range handles {
		state, err := r.engine.State(ctx, h.ID)
		if err != nil {
			return nil, fmt.Errorf("inspecting box %q: %w", h.Name, err)
		}
		statuses = append(statuses, BoxStatus{Handle: h, State: state})
	}
	return statuses, nil
}

// checkPortFree rejects a start when another tracked box is running on
// the same host port. Foreign processes are caught later by the engine.
func (r *Runner) checkPortFree(ctx context.Context, spec *boxfile.ImageSpec) error {
	handles, err := r.store.List()
	if err != nil {
		return err
	}
	for _, h := range handles {
		if h.Name == spec.Name || h.HostPort != spec.HostPort {
			continue
		}
		state, err := r.engine.State(ctx, h.ID)
		if err != nil {
			return fmt.Errorf("inspecting box %q: %w", h.Name, err)
		}
		if state == container.StateRunning {
			return &PortInUseError{Port: spec.HostPort, Owner: h.Name}
		}
	}
	return nil
}

// isPortCollision matches the port-conflict phrasings of docker and podman.
func isPortCollision(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "port is already allocated") ||
		strings.Contains(msg, "address already in use") ||
		strings.Contains(msg, "ports are not available")
}

func volumeMounts(spec *boxfile.ImageSpec) []container.VolumeMount {
	if len(spec.Mounts) == 0 {
		return nil
	}
	volumes := make([]container.VolumeMount, 0, len(spec.Mounts))
	for _, m := range spec.Mounts {
		volumes = append(volumes, container.VolumeMount{
			HostPath:      m.HostPath,
			ContainerPath: m.ContainerPath,
			ReadOnly:      m.ReadOnly,
		})
	}
	return volumes
}
