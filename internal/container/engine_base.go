// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"sshbox-cli/internal/issue"
)

const (
	// SELinuxLabelNone means no SELinux label is applied to volume mounts.
	SELinuxLabelNone SELinuxLabel = ""
	// SELinuxLabelShared allows sharing the volume between containers.
	SELinuxLabelShared SELinuxLabel = "z"
	// SELinuxLabelPrivate restricts the volume to a single container.
	SELinuxLabelPrivate SELinuxLabel = "Z"
)

var (
	// ErrInvalidNetworkPort is the sentinel error wrapped by InvalidNetworkPortError.
	ErrInvalidNetworkPort = errors.New("invalid network port")

	// ErrInvalidPortMapping is the sentinel error wrapped by InvalidPortMappingError.
	ErrInvalidPortMapping = errors.New("invalid port mapping")

	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// VolumeFormatFunc formats a volume mount spec as a -v argument string.
	// Podman uses this to add SELinux labels (:z) which are required in
	// SELinux-enforcing environments; without them container processes
	// cannot access bind-mounted host paths.
	VolumeFormatFunc func(volume VolumeMount) string

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides the common implementation for CLI-based container
	// engines. Docker and Podman engines embed this struct. Methods identical
	// across engines (Build, Start, Stop, Remove, Exec, State, RemoveImage)
	// are implemented here; engine-specific methods (Available, Version,
	// ImageExists) remain on the concrete types.
	BaseCLIEngine struct {
		name            string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath      string // Resolved at construction via exec.LookPath
		execCommand     ExecCommandFunc
		volumeFormatter VolumeFormatFunc
	}

	// NetworkPort represents a TCP port number for container port mappings.
	// A valid port must be greater than zero.
	NetworkPort uint16

	// InvalidNetworkPortError is returned when a NetworkPort value is zero.
	InvalidNetworkPortError struct {
		Value NetworkPort
	}

	// SELinuxLabel represents an SELinux volume labeling option.
	// The zero value ("") means no SELinux label is applied.
	SELinuxLabel string

	// PortMapping represents a host-to-container port mapping.
	PortMapping struct {
		HostPort      NetworkPort
		ContainerPort NetworkPort
	}

	// InvalidPortMappingError is returned when a PortMapping has one or more
	// invalid fields. It wraps the individual field errors for inspection.
	InvalidPortMappingError struct {
		Value     PortMapping
		FieldErrs []error
	}

	// VolumeMount represents a bind mount specification.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
		SELinux       SELinuxLabel
	}

	// InvalidVolumeMountError is returned when a VolumeMount has one or more
	// invalid fields. It wraps the individual field errors for inspection.
	InvalidVolumeMountError struct {
		Value     VolumeMount
		FieldErrs []error
	}
)

// String returns the string representation of the NetworkPort.
func (p NetworkPort) String() string { return strconv.Itoa(int(p)) }

// Validate returns an error if the NetworkPort is zero.
func (p NetworkPort) Validate() error {
	if p == 0 {
		return &InvalidNetworkPortError{Value: p}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidNetworkPortError) Error() string {
	return fmt.Sprintf("invalid network port %d: must be greater than zero", e.Value)
}

// Unwrap returns ErrInvalidNetworkPort for errors.Is() compatibility.
func (e *InvalidNetworkPortError) Unwrap() error { return ErrInvalidNetworkPort }

// Error implements the error interface.
func (e *InvalidPortMappingError) Error() string {
	return fmt.Sprintf("invalid port mapping %d:%d: %d field error(s)",
		e.Value.HostPort, e.Value.ContainerPort, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidPortMapping for errors.Is() compatibility.
func (e *InvalidPortMappingError) Unwrap() error { return ErrInvalidPortMapping }

// Validate returns an error if either port of the mapping is invalid.
func (p PortMapping) Validate() error {
	var errs []error
	if err := p.HostPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.ContainerPort.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidPortMappingError{Value: p, FieldErrs: errs}
	}
	return nil
}

// String returns the port mapping in "host:container" format.
func (p PortMapping) String() string {
	return fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort)
}

// ParsePortMapping parses "hostPort:containerPort" into a PortMapping and
// validates the result.
func ParsePortMapping(portStr string) (PortMapping, error) {
	mapping := PortMapping{}

	parts := strings.SplitN(portStr, ":", 2)
	if len(parts) != 2 {
		return mapping, fmt.Errorf("invalid port mapping format %q: must contain ':' separator", portStr)
	}

	hostPort, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("invalid host port %q: %w", parts[0], err)
	}
	mapping.HostPort = NetworkPort(hostPort)

	containerPort, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return mapping, fmt.Errorf("invalid container port %q: %w", parts[1], err)
	}
	mapping.ContainerPort = NetworkPort(containerPort)

	if err := mapping.Validate(); err != nil {
		return mapping, err
	}
	return mapping, nil
}

// Error implements the error interface.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %s:%s: %d field error(s)",
		e.Value.HostPath, e.Value.ContainerPath, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is() compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate returns an error if either path of the VolumeMount is empty or
// whitespace-only.
func (v VolumeMount) Validate() error {
	var errs []error
	if strings.TrimSpace(v.HostPath) == "" {
		errs = append(errs, fmt.Errorf("host path must be non-empty"))
	}
	if strings.TrimSpace(v.ContainerPath) == "" {
		errs = append(errs, fmt.Errorf("container path must be non-empty"))
	}
	if len(errs) > 0 {
		return &InvalidVolumeMountError{Value: v, FieldErrs: errs}
	}
	return nil
}

// String returns the volume mount in "host:container[:opts]" format.
func (v VolumeMount) String() string {
	s := v.HostPath + ":" + v.ContainerPath

	var options []string
	if v.ReadOnly {
		options = append(options, "ro")
	}
	if v.SELinux != "" {
		options = append(options, string(v.SELinux))
	}
	if len(options) > 0 {
		s += ":" + strings.Join(options, ",")
	}

	return s
}

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithVolumeFormatter sets a custom volume formatter function.
// This is used by Podman to add SELinux labels on Linux.
func WithVolumeFormatter(fn VolumeFormatFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.volumeFormatter = fn
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:      binaryPath,
		execCommand:     exec.CommandContext,
		volumeFormatter: func(v VolumeMount) string { return v.String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessors ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// BuildArgs constructs arguments for a container build command.
//
// Generated command: <binary> build [options] <context>
func (e *BaseCLIEngine) BuildArgs(opts BuildOptions) []string {
	args := []string{"build"}

	if opts.Dockerfile != "" {
		// Resolve the Dockerfile relative to the context directory. If
		// ContextDir is empty the path is used as-is (resolvable from CWD
		// by the container engine).
		dockerfilePath := opts.Dockerfile
		if !filepath.IsAbs(dockerfilePath) && opts.ContextDir != "" {
			dockerfilePath = filepath.Join(opts.ContextDir, dockerfilePath)
		}
		args = append(args, "-f", dockerfilePath)
	}

	if opts.Tag != "" {
		args = append(args, "-t", opts.Tag)
	}

	if opts.NoCache {
		args = append(args, "--no-cache")
	}

	for k, v := range opts.BuildArgs {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, v))
	}

	args = append(args, opts.ContextDir)

	return args
}

// StartArgs constructs arguments for a detached container run command.
//
// Generated command: <binary> run -d [options] <image> [command...]
func (e *BaseCLIEngine) StartArgs(opts StartOptions) []string {
	args := []string{"run", "-d"}

	if opts.Name != "" {
		args = append(args, "--name", opts.Name)
	}

	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	for _, p := range opts.Ports {
		args = append(args, "-p", p.String())
	}

	for _, v := range opts.Volumes {
		args = append(args, "-v", e.volumeFormatter(v))
	}

	args = append(args, opts.Image)
	args = append(args, opts.Command...)

	return args
}

// ExecArgs constructs arguments for a container exec command.
//
// Generated command: <binary> exec [options] <container> <command...>
func (e *BaseCLIEngine) ExecArgs(containerID string, command []string, opts ExecOptions) []string {
	args := []string{"exec"}

	if opts.Interactive {
		args = append(args, "-i")
	}

	if opts.TTY {
		args = append(args, "-t")
	}

	if opts.User != "" {
		args = append(args, "-u", opts.User)
	}

	args = append(args, containerID)
	args = append(args, command...)

	return args
}

// StopArgs constructs arguments for a container stop command.
func (e *BaseCLIEngine) StopArgs(containerID string) []string {
	return []string{"stop", containerID}
}

// RemoveArgs constructs arguments for a container remove command.
func (e *BaseCLIEngine) RemoveArgs(containerID string, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, containerID)
	return args
}

// RemoveImageArgs constructs arguments for an image remove command.
func (e *BaseCLIEngine) RemoveImageArgs(image string, force bool) []string {
	args := []string{"rmi"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, image)
	return args
}

// --- Command Execution ---

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// This is useful when the caller needs to customize stdin/stdout/stderr.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// --- Promoted Engine Methods (shared by Docker and Podman) ---

// Build builds an image from a Dockerfile.
// It validates BuildOptions before executing to catch invalid fields early.
func (e *BaseCLIEngine) Build(ctx context.Context, opts BuildOptions) error {
	args := e.BuildArgs(opts)

	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return buildImageError(e.name, opts, err)
	}

	return nil
}

// Start creates and starts a detached container, returning the container ID
// printed by the engine. Options are validated before executing.
func (e *BaseCLIEngine) Start(ctx context.Context, opts StartOptions) (string, error) {
	for _, p := range opts.Ports {
		if err := p.Validate(); err != nil {
			return "", err
		}
	}
	for _, v := range opts.Volumes {
		if err := v.Validate(); err != nil {
			return "", err
		}
	}

	args := e.StartArgs(opts)

	out, err := e.RunCommandWithOutput(ctx, args...)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// Stop stops a running container.
func (e *BaseCLIEngine) Stop(ctx context.Context, containerID string) error {
	return e.RunCommandStatus(ctx, e.StopArgs(containerID)...)
}

// Remove removes a container.
func (e *BaseCLIEngine) Remove(ctx context.Context, containerID string, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveArgs(containerID, force)...)
}

// Exec runs a command in a running container.
// A non-zero exit code is captured in ExecResult.ExitCode (not returned as
// error). Only infrastructure failures set ExecResult.Error.
func (e *BaseCLIEngine) Exec(ctx context.Context, containerID string, command []string, opts ExecOptions) (*ExecResult, error) {
	args := e.ExecArgs(containerID, command, opts)

	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	err := cmd.Run()

	result := &ExecResult{ContainerID: containerID}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Error = err
		}
	}

	return result, nil
}

// State reports the container's lifecycle state via inspect.
// Any inspect failure is treated as StateMissing: Docker and Podman phrase
// "no such container" differently, and for lifecycle decisions an unknown
// container and a removed one are handled the same way.
func (e *BaseCLIEngine) State(ctx context.Context, containerID string) (ContainerState, error) {
	out, err := e.RunCommandWithOutput(ctx, "inspect", "-f", "{{.State.Running}}", containerID)
	if err != nil {
		return StateMissing, nil
	}

	if strings.TrimSpace(out) == "true" {
		return StateRunning, nil
	}
	return StateStopped, nil
}

// RemoveImage removes an image.
func (e *BaseCLIEngine) RemoveImage(ctx context.Context, image string, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveImageArgs(image, force)...)
}

// BuildExecArgs builds the argument slice for an 'exec' command without
// executing. Used by interactive mode where the command is attached to a PTY.
func (e *BaseCLIEngine) BuildExecArgs(containerID string, command []string, opts ExecOptions) []string {
	return e.ExecArgs(containerID, command, opts)
}

// --- Actionable Error Helpers ---

// buildImageError creates an actionable error for image build failures.
func buildImageError(engine string, opts BuildOptions, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("build container image")

	switch {
	case opts.Tag != "":
		ctx.WithResource(opts.Tag)
	case opts.Dockerfile != "":
		ctx.WithResource(opts.Dockerfile)
	case opts.ContextDir != "":
		ctx.WithResource(opts.ContextDir + "/Dockerfile")
	}

	ctx.WithSuggestion("Check the boxfile's baseImage and package names")
	ctx.WithSuggestion("Ensure the base image is pullable (try: " + engine + " pull <base-image>)")
	ctx.WithSuggestion("Run with --verbose to see full build output")

	return ctx.Wrap(cause).BuildError()
}
