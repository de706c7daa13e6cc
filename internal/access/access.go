// SPDX-License-Identifier: MPL-2.0

// Package access grants SSH access to a running box and wires the host's
// SSH client config to reach it.
//
// Authorization happens inside the container through the engine's exec
// channel, so no SSH connectivity is needed yet. The operation is
// idempotent: a key that is already authorized is not appended again.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"sshbox-cli/internal/container"
)

// execAttempts bounds retries of engine-level exec failures.
const execAttempts = 3

// execBackoff is a var so tests can shrink the retry delay.
var execBackoff = 200 * time.Millisecond

var (
	// ErrAccessDenied is the sentinel error wrapped by AccessDeniedError.
	ErrAccessDenied = errors.New("access configuration denied")

	// ErrInvalidKey is returned when an authorized key line cannot be
	// safely embedded in the in-container shell script.
	ErrInvalidKey = errors.New("invalid authorized key line")
)

type (
	// AccessDeniedError is returned when the in-container authorization
	// script fails, typically because the account is missing or the
	// filesystem is read-only.
	AccessDeniedError struct {
		User  string
		Cause error
	}

	// Configurator installs authorized keys into running containers.
	Configurator struct {
		engine container.Engine
		logger *log.Logger
	}
)

// Error implements the error interface.
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("authorize key for user %q: %v", e.User, e.Cause)
}

// Unwrap returns the cause so callers can inspect the chain.
func (e *AccessDeniedError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrAccessDenied.
func (e *AccessDeniedError) Is(target error) bool { return target == ErrAccessDenied }

// NewConfigurator creates a Configurator on top of the given engine.
func NewConfigurator(engine container.Engine, logger *log.Logger) *Configurator {
	if logger == nil {
		logger = log.Default()
	}
	return &Configurator{engine: engine, logger: logger}
}

// Authorize installs an authorized key line for a user inside a running
// container. Calling it again with the same key is a no-op.
func (c *Configurator) Authorize(ctx context.Context, containerID, user, authorizedKey string) error {
	key := strings.TrimSpace(authorizedKey)
	if err := validateKeyLine(key); err != nil {
		return err
	}

	script := authorizeScript(user, key)

	// A container that just started may not accept exec sessions yet, so
	// engine-level failures are retried. A non-zero script exit is a real
	// denial and is never retried.
	var result *container.ExecResult
	err := container.RetryWithBackoff(ctx, execAttempts, execBackoff, func(attempt int) (bool, error) {
		var execErr error
		result, execErr = c.engine.Exec(ctx, containerID, []string{"sh", "-c", script}, container.ExecOptions{})
		if execErr != nil {
			c.logger.Debug("exec failed", "attempt", attempt+1, "container", containerID, "error", execErr)
			return true, execErr
		}
		return false, nil
	})
	if err != nil {
		return &AccessDeniedError{User: user, Cause: err}
	}
	if result.ExitCode != 0 {
		return &AccessDeniedError{
			User:  user,
			Cause: fmt.Errorf("authorization script exited with code %d", result.ExitCode),
		}
	}

	c.logger.Debug("authorized key installed", "user", user, "container", containerID)
	return nil
}

// authorizeScript builds the idempotent in-container script. The key is
// embedded in single quotes; validateKeyLine guarantees it contains none.
func authorizeScript(user, key string) string {
	dir := fmt.Sprintf("/home/%s/.ssh", user)
	var sb strings.Builder
	sb.WriteString("set -e\n")
	fmt.Fprintf(&sb, "mkdir -p %s\n", dir)
	fmt.Fprintf(&sb, "touch %s/authorized_keys\n", dir)
	fmt.Fprintf(&sb, "grep -qxF '%s' %s/authorized_keys || printf '%%s\\n' '%s' >> %s/authorized_keys\n",
		key, dir, key, dir)
	fmt.Fprintf(&sb, "chmod 700 %s\n", dir)
	fmt.Fprintf(&sb, "chmod 600 %s/authorized_keys\n", dir)
	fmt.Fprintf(&sb, "chown -R %s:%s %s\n", user, user, dir)
	return sb.String()
}

// validateKeyLine rejects key material that would break out of the shell
// quoting or span multiple lines.
func validateKeyLine(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "'\n\r") {
		return fmt.Errorf("%w: contains quote or newline characters", ErrInvalidKey)
	}
	return nil
}
