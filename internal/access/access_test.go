// SPDX-License-Identifier: MPL-2.0

package access

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sshbox-cli/internal/container"
)

// execRecorder is a container.Engine double that only supports Exec.
type execRecorder struct {
	exitCode int
	execErr  error
	failures int // when > 0, fail that many Exec calls before succeeding

	commands [][]string
}

func (e *execRecorder) Name() string                            { return "recorder" }
func (e *execRecorder) Available() bool                         { return true }
func (e *execRecorder) Version(context.Context) (string, error) { return "0.0-test", nil }
func (e *execRecorder) Build(context.Context, container.BuildOptions) error { return nil }
func (e *execRecorder) Stop(context.Context, string) error                  { return nil }
func (e *execRecorder) Remove(context.Context, string, bool) error          { return nil }
func (e *execRecorder) ImageExists(context.Context, string) (bool, error)   { return false, nil }
func (e *execRecorder) RemoveImage(context.Context, string, bool) error     { return nil }

func (e *execRecorder) Start(context.Context, container.StartOptions) (string, error) {
	return "", errors.New("not implemented")
}

func (e *execRecorder) State(context.Context, string) (container.ContainerState, error) {
	return container.StateRunning, nil
}

func (e *execRecorder) Exec(_ context.Context, _ string, command []string, _ container.ExecOptions) (*container.ExecResult, error) {
	e.commands = append(e.commands, command)
	if e.failures > 0 {
		e.failures--
		err := e.execErr
		if e.failures == 0 {
			e.execErr = nil
		}
		return nil, err
	}
	if e.execErr != nil {
		return nil, e.execErr
	}
	return &container.ExecResult{ExitCode: e.exitCode}, nil
}

const testKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIMfake dev@box"

func TestAuthorize(t *testing.T) {
	t.Parallel()
	engine := &execRecorder{}
	c := NewConfigurator(engine, nil)

	if err := c.Authorize(context.Background(), "abc123", "dev", testKey); err != nil {
		t.Fatalf("Authorize: %v", err)
	}

	if len(engine.commands) != 1 {
		t.Fatalf("expected 1 exec, got %d", len(engine.commands))
	}
	cmd := engine.commands[0]
	if cmd[0] != "sh" || cmd[1] != "-c" {
		t.Fatalf("expected a shell invocation, got %v", cmd)
	}
	script := cmd[2]
	for _, want := range []string{
		"mkdir -p /home/dev/.ssh",
		"grep -qxF '" + testKey + "'",
		"chmod 700 /home/dev/.ssh",
		"chmod 600 /home/dev/.ssh/authorized_keys",
		"chown -R dev:dev /home/dev/.ssh",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("script missing %q:\n%s", want, script)
		}
	}
}

func TestAuthorize_ScriptFailure(t *testing.T) {
	t.Parallel()
	engine := &execRecorder{exitCode: 1}
	c := NewConfigurator(engine, nil)

	err := c.Authorize(context.Background(), "abc123", "dev", testKey)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	var denied *AccessDeniedError
	if !errors.As(err, &denied) || denied.User != "dev" {
		t.Fatalf("unexpected error detail: %v", err)
	}
}

func TestAuthorize_ExecInfrastructureFailure(t *testing.T) {
	// Not parallel: shrinks the package-level retry backoff.
	orig := execBackoff
	execBackoff = time.Millisecond
	t.Cleanup(func() { execBackoff = orig })

	engine := &execRecorder{execErr: errors.New("engine unreachable")}
	c := NewConfigurator(engine, nil)

	if err := c.Authorize(context.Background(), "abc123", "dev", testKey); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if len(engine.commands) != execAttempts {
		t.Fatalf("expected %d exec attempts, got %d", execAttempts, len(engine.commands))
	}
}

func TestAuthorize_RetriesTransientExecFailure(t *testing.T) {
	// Not parallel: shrinks the package-level retry backoff.
	orig := execBackoff
	execBackoff = time.Millisecond
	t.Cleanup(func() { execBackoff = orig })

	engine := &execRecorder{execErr: errors.New("container not yet accepting exec"), failures: 1}
	c := NewConfigurator(engine, nil)

	if err := c.Authorize(context.Background(), "abc123", "dev", testKey); err != nil {
		t.Fatalf("Authorize after transient failure: %v", err)
	}
	if len(engine.commands) != 2 {
		t.Fatalf("expected 2 exec attempts, got %d", len(engine.commands))
	}
}

func TestAuthorize_RejectsUnsafeKey(t *testing.T) {
	t.Parallel()
	engine := &execRecorder{}
	c := NewConfigurator(engine, nil)

	for _, key := range []string{"", "ssh-rsa AAAA' rm -rf /", "ssh-rsa AAAA\nextra"} {
		if err := c.Authorize(context.Background(), "abc123", "dev", key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
	if len(engine.commands) != 0 {
		t.Fatal("unsafe keys must be rejected before touching the engine")
	}
}
