// SPDX-License-Identifier: MPL-2.0

// Package container provides a unified abstraction layer for container engines
// (Docker/Podman).
//
// The Engine interface defines the operations the pipeline needs: Build,
// Start (detached), Stop, Remove, Exec, State, ImageExists, and RemoveImage.
// Two implementations are provided: DockerEngine and PodmanEngine, both
// embedding BaseCLIEngine for shared CLI argument construction and command
// execution.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the
// preferred engine is unavailable, or AutoDetectEngine() for preference-less
// detection (Docker is tried first).
package container
