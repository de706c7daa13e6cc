// SPDX-License-Identifier: MPL-2.0

// Package health probes a box's SSH endpoint until it accepts connections.
//
// Readiness means the SSH handshake completes, not that authentication
// succeeds: a server that rejects the probe's credentials has still proven
// that sshd is up and listening, which is all the pipeline needs before
// declaring a box usable.
package health

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"
)

const (
	// StateReady means the endpoint completed an SSH handshake.
	StateReady State = "ready"
	// StateTimedOut means the deadline passed without a handshake.
	StateTimedOut State = "timed_out"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultInterval = 500 * time.Millisecond
	minInterval     = 100 * time.Millisecond
	probeDialLimit  = 3 * time.Second
)

type (
	// State is the outcome of a readiness wait.
	State string

	// Options configures WaitReady.
	Options struct {
		// Timeout bounds the whole wait. Zero means probe exactly once.
		Timeout time.Duration
		// Interval is the delay between probes.
		Interval time.Duration
		// User is the account offered during the probe handshake.
		User string
		// Logger receives per-probe debug output (nil = default).
		Logger *log.Logger
	}

	// Result describes how a readiness wait ended. A timeout is a
	// result, not an error; errors are reserved for cancellation.
	Result struct {
		State    State
		Attempts int
		Elapsed  time.Duration
		// LastErr is the most recent probe failure, kept for diagnostics
		// when the wait times out.
		LastErr error
	}
)

// WaitReady probes addr until the SSH handshake completes, the timeout
// passes, or ctx is canceled. It returns an error only on cancellation;
// an unreachable endpoint yields a StateTimedOut result.
func WaitReady(ctx context.Context, addr string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	if interval < minInterval {
		interval = minInterval
	}

	singleProbe := opts.Timeout == 0
	timeout := opts.Timeout
	if singleProbe {
		timeout = probeDialLimit
	}

	start := time.Now()
	deadline := start.Add(timeout)
	result := &Result{State: StateTimedOut}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result.Attempts++
		err := probe(addr, opts.User, probeTimeout(deadline))
		if err == nil {
			result.State = StateReady
			result.Elapsed = time.Since(start)
			logger.Debug("ssh endpoint ready", "addr", addr, "attempts", result.Attempts)
			return result, nil
		}
		result.LastErr = err
		logger.Debug("ssh probe failed", "addr", addr, "attempt", result.Attempts, "err", err)

		if singleProbe || !time.Now().Add(interval).Before(deadline) {
			result.Elapsed = time.Since(start)
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// probe attempts one SSH handshake. An authentication rejection counts as
// success because it can only happen after the handshake completed.
func probe(addr, user string, timeout time.Duration) error {
	if user == "" {
		user = "sshbox-probe"
	}
	config := &ssh.ClientConfig{
		User:            user,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		if isAuthRejection(err) {
			return nil
		}
		return err
	}
	return client.Close()
}

// probeTimeout bounds a single dial by both the per-probe cap and the
// overall deadline.
func probeTimeout(deadline time.Time) time.Duration {
	remaining := time.Until(deadline)
	if remaining <= 0 || remaining > probeDialLimit {
		return probeDialLimit
	}
	return remaining
}

// isAuthRejection matches the client error produced when the server
// completed the handshake but refused our (empty) credentials.
func isAuthRejection(err error) bool {
	if err == nil {
		return false
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	return strings.Contains(err.Error(), "unable to authenticate")
}
