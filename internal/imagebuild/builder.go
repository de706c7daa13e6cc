// SPDX-License-Identifier: MPL-2.0

// Package imagebuild renders build definitions from boxfile specs and drives
// the container engine to build them.
//
// Image tags are content-addressable: the tag embeds a hash of the rendered
// Dockerfile, so an unchanged spec resolves to an image that already exists
// locally and the build is skipped. Forcing a rebuild bypasses both the
// local-image check and the engine's layer cache.
package imagebuild

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"sshbox-cli/internal/container"
	"sshbox-cli/pkg/boxfile"
)

// tagHashLen is how many hex digits of the content hash go into the tag.
const tagHashLen = 12

// ErrBuild is the sentinel error wrapped by BuildError.
var ErrBuild = errors.New("image build failed")

type (
	// BuildError is returned when the build backend exits non-zero.
	BuildError struct {
		Tag   string
		Cause error
	}

	// Builder turns image specs into locally available images.
	Builder struct {
		engine container.Engine
		logger *log.Logger
	}

	// Options configures a Build call.
	Options struct {
		// ForceRebuild bypasses the cached image and the engine's layer cache.
		ForceRebuild bool
		// Output receives the engine's build output (nil = discarded).
		Output io.Writer
	}
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("build image %s: %v", e.Tag, e.Cause)
}

// Unwrap returns the cause so callers can inspect the chain.
func (e *BuildError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrBuild.
func (e *BuildError) Is(target error) bool { return target == ErrBuild }

// NewBuilder creates a Builder on top of the given engine.
func NewBuilder(engine container.Engine, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{engine: engine, logger: logger}
}

// ImageTag returns the content-addressed tag for a spec without building.
func ImageTag(spec *boxfile.ImageSpec) string {
	sum := sha256.Sum256([]byte(RenderDockerfile(spec)))
	return fmt.Sprintf("sshbox/%s:%s", spec.Name, hex.EncodeToString(sum[:])[:tagHashLen])
}

// Build ensures the image for the spec exists locally and returns its tag.
//
// The spec must already be validated. When the tag is present and
// ForceRebuild is unset, the existing image is reused without invoking the
// backend at all, which keeps repeated 'sshbox up' runs fast and satisfies
// the determinism of tag derivation.
func (b *Builder) Build(ctx context.Context, spec *boxfile.ImageSpec, opts Options) (string, error) {
	tag := ImageTag(spec)

	if !opts.ForceRebuild {
		exists, err := b.engine.ImageExists(ctx, tag)
		if err == nil && exists {
			b.logger.Debug("reusing cached image", "tag", tag)
			return tag, nil
		}
	}

	contextDir, err := os.MkdirTemp("", "sshbox-build-")
	if err != nil {
		return "", &BuildError{Tag: tag, Cause: err}
	}
	defer func() { _ = os.RemoveAll(contextDir) }() // Temp context; removal error non-critical

	dockerfile := RenderDockerfile(spec)
	if err := os.WriteFile(filepath.Join(contextDir, "Dockerfile"), []byte(dockerfile), 0o644); err != nil {
		return "", &BuildError{Tag: tag, Cause: err}
	}

	b.logger.Info("building image", "tag", tag, "base", spec.BaseImage, "engine", b.engine.Name())

	buildOpts := container.BuildOptions{
		ContextDir: contextDir,
		Dockerfile: "Dockerfile",
		Tag:        tag,
		NoCache:    opts.ForceRebuild,
		Stdout:     opts.Output,
		Stderr:     opts.Output,
	}
	if err := b.engine.Build(ctx, buildOpts); err != nil {
		return "", &BuildError{Tag: tag, Cause: err}
	}

	return tag, nil
}
