// SPDX-License-Identifier: MPL-2.0

// Package pipeline runs the box provisioning stages in order.
//
// The stages are strictly sequential: keypair, image, container, access,
// health. A stage only runs when every stage before it succeeded, and a
// failure is tagged with the stage that produced it so the CLI can map it
// to a stable exit code.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"sshbox-cli/internal/access"
	"sshbox-cli/internal/container"
	"sshbox-cli/internal/health"
	"sshbox-cli/internal/imagebuild"
	"sshbox-cli/internal/keymgr"
	"sshbox-cli/internal/runner"
	"sshbox-cli/pkg/boxfile"
)

const (
	StageKey    Stage = "key"
	StageBuild  Stage = "build"
	StageRun    Stage = "run"
	StageAccess Stage = "access"
	StageHealth Stage = "health"
)

// Exit codes per failed stage. Stable so scripts can branch on them.
const (
	ExitKey    = 10
	ExitBuild  = 11
	ExitRun    = 12
	ExitAccess = 13
	ExitHealth = 14
)

// ErrNotReady is returned when the health stage exhausts its deadline
// without the box accepting SSH connections.
var ErrNotReady = errors.New("box did not become reachable")

type (
	// Stage names one step of the provisioning pipeline.
	Stage string

	// StageError tags a failure with the stage that produced it.
	StageError struct {
		Stage Stage
		Err   error
	}

	// Options configures an Up run.
	Options struct {
		// KeyPath is where the client keypair lives (generated if absent).
		KeyPath string
		// KeyAlgorithm defaults to ed25519 when empty.
		KeyAlgorithm keymgr.Algorithm
		// ForceRebuild bypasses the cached image.
		ForceRebuild bool
		// BuildOutput receives the engine's build output (nil = discarded).
		BuildOutput io.Writer
		// WaitTimeout bounds the health stage. Zero means probe once.
		WaitTimeout time.Duration
		// WaitInterval is the delay between health probes.
		WaitInterval time.Duration
		// SSHConfigPath, when set, receives a managed Host block for the
		// box after the access stage succeeds.
		SSHConfigPath string
	}

	// Result collects what each stage produced.
	Result struct {
		Key    *keymgr.KeyPair
		Image  string
		Handle *runner.Handle
		Health *health.Result
	}

	// Pipeline wires the stage implementations together.
	Pipeline struct {
		builder *imagebuild.Builder
		runner  *runner.Runner
		access  *access.Configurator
		logger  *log.Logger
	}
)

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying stage failure.
func (e *StageError) Unwrap() error { return e.Err }

// ExitCode maps the failed stage to its stable process exit code.
func (e *StageError) ExitCode() int {
	switch e.Stage {
	case StageKey:
		return ExitKey
	case StageBuild:
		return ExitBuild
	case StageRun:
		return ExitRun
	case StageAccess:
		return ExitAccess
	case StageHealth:
		return ExitHealth
	default:
		return 1
	}
}

// New creates a Pipeline from its stage implementations.
func New(builder *imagebuild.Builder, run *runner.Runner, configurator *access.Configurator, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{builder: builder, runner: run, access: configurator, logger: logger}
}

// NewFromEngine builds the full stage set on a single engine.
func NewFromEngine(engine container.Engine, store *runner.Store, logger *log.Logger) *Pipeline {
	return New(
		imagebuild.NewBuilder(engine, logger),
		runner.NewRunner(engine, store, logger),
		access.NewConfigurator(engine, logger),
		logger,
	)
}

// Up provisions a box end to end and returns what each stage produced.
// The Result carries everything completed so far even on failure, so the
// CLI can report partial progress.
func (p *Pipeline) Up(ctx context.Context, spec *boxfile.ImageSpec, opts Options) (*Result, error) {
	result := &Result{}

	p.logger.Info("provisioning box", "name", spec.Name)

	key, err := keymgr.LoadOrGenerate(opts.KeyPath, keymgr.GenerateOptions{Algorithm: opts.KeyAlgorithm})
	if err != nil {
		return result, &StageError{Stage: StageKey, Err: err}
	}
	result.Key = key

	image, err := p.builder.Build(ctx, spec, imagebuild.Options{
		ForceRebuild: opts.ForceRebuild,
		Output:       opts.BuildOutput,
	})
	if err != nil {
		return result, &StageError{Stage: StageBuild, Err: err}
	}
	result.Image = image

	handle, err := p.runner.Start(ctx, spec, image)
	if err != nil {
		return result, &StageError{Stage: StageRun, Err: err}
	}
	result.Handle = handle

	if err := p.access.Authorize(ctx, handle.ID, spec.User, key.AuthorizedKey()); err != nil {
		return result, &StageError{Stage: StageAccess, Err: err}
	}
	if opts.SSHConfigPath != "" {
		entry := access.HostEntry{
			Alias:        spec.Name + ".box",
			HostName:     "127.0.0.1",
			Port:         handle.HostPort,
			User:         spec.User,
			IdentityFile: key.PrivateKeyPath,
		}
		if err := access.WriteClientConfig(opts.SSHConfigPath, entry); err != nil {
			return result, &StageError{Stage: StageAccess, Err: err}
		}
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(handle.HostPort))
	healthResult, err := health.WaitReady(ctx, addr, health.Options{
		Timeout:  opts.WaitTimeout,
		Interval: opts.WaitInterval,
		User:     spec.User,
		Logger:   p.logger,
	})
	if err != nil {
		return result, &StageError{Stage: StageHealth, Err: err}
	}
	result.Health = healthResult
	if healthResult.State != health.StateReady {
		err := fmt.Errorf("%w after %d probes over %s", ErrNotReady,
			healthResult.Attempts, healthResult.Elapsed.Round(time.Millisecond))
		if healthResult.LastErr != nil {
			err = fmt.Errorf("%w (last probe: %v)", err, healthResult.LastErr)
		}
		return result, &StageError{Stage: StageHealth, Err: err}
	}

	p.logger.Info("box ready", "name", spec.Name, "addr", addr)
	return result, nil
}
