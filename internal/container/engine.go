// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
)

const (
	// StateRunning means the container exists and its main process is alive.
	StateRunning ContainerState = "running"
	// StateStopped means the container exists but is not running.
	StateStopped ContainerState = "stopped"
	// StateMissing means the engine knows no container under the given ID.
	StateMissing ContainerState = "missing"
)

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

type (
	// EngineType identifies the container engine type.
	EngineType string

	// ContainerState is the coarse lifecycle state reported by State().
	ContainerState string

	// Engine defines the interface for container operations.
	Engine interface {
		// Name returns the engine name (docker or podman)
		Name() string
		// Available checks if the engine is usable on this system
		Available() bool
		// Version returns the engine version
		Version(ctx context.Context) (string, error)

		// Build builds an image from a Dockerfile
		Build(ctx context.Context, opts BuildOptions) error
		// Start creates and starts a detached container, returning its ID
		Start(ctx context.Context, opts StartOptions) (string, error)
		// Stop stops a running container
		Stop(ctx context.Context, containerID string) error
		// Remove removes a container
		Remove(ctx context.Context, containerID string, force bool) error
		// Exec runs a command in a running container
		Exec(ctx context.Context, containerID string, command []string, opts ExecOptions) (*ExecResult, error)
		// State reports the container's lifecycle state
		State(ctx context.Context, containerID string) (ContainerState, error)
		// ImageExists checks if an image exists locally
		ImageExists(ctx context.Context, image string) (bool, error)
		// RemoveImage removes an image
		RemoveImage(ctx context.Context, image string, force bool) error
	}

	// BuildOptions contains options for building an image.
	BuildOptions struct {
		// ContextDir is the build context directory
		ContextDir string
		// Dockerfile is the path to the Dockerfile (relative to ContextDir)
		Dockerfile string
		// Tag is the image tag
		Tag string
		// BuildArgs are build-time variables
		BuildArgs map[string]string
		// NoCache disables the build cache
		NoCache bool
		// Stdout is where to write build output
		Stdout io.Writer
		// Stderr is where to write build errors
		Stderr io.Writer
	}

	// StartOptions contains options for starting a detached container.
	StartOptions struct {
		// Image is the image to run
		Image string
		// Name is the container name
		Name string
		// Ports are port mappings published to the host
		Ports []PortMapping
		// Volumes are bind mounts into the container
		Volumes []VolumeMount
		// Env contains environment variables
		Env map[string]string
		// Command overrides the image's default command
		Command []string
	}

	// ExecOptions contains options for running a command in an existing container.
	ExecOptions struct {
		// User is the account to exec as (empty = image default)
		User string
		// Interactive keeps stdin open
		Interactive bool
		// TTY allocates a pseudo-TTY
		TTY bool
		// Stdin is the standard input
		Stdin io.Reader
		// Stdout is where to write standard output
		Stdout io.Writer
		// Stderr is where to write standard error
		Stderr io.Writer
	}

	// ExecResult contains the outcome of an Exec call.
	// A non-zero exit code is captured in ExitCode, not returned as an error;
	// only infrastructure failures (engine unreachable, binary missing) set Error.
	ExecResult struct {
		ContainerID string
		ExitCode    int
		Error       error
	}

	// ErrEngineNotAvailable is returned when a container engine is not available.
	ErrEngineNotAvailable struct {
		Engine string
		Reason string
	}
)

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a container engine based on preference, falling back to
// the other engine when the preferred one is unavailable.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podman := NewPodmanEngine()
		if podman.Available() {
			return podman, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		docker := NewDockerEngine()
		if docker.Available() {
			return docker, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
// Docker is tried first since it is the common case for dev containers.
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
