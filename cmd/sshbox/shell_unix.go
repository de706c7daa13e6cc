// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// runShellSession runs an interactive shell in the container under a
// pseudo-terminal, with the local terminal in raw mode and window size
// changes forwarded.
func runShellSession(engineBinary, containerID, user string) error {
	cmd := exec.Command(engineBinary, "exec", "-it", "-u", user, containerID, "/bin/bash", "-l")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("starting shell session: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	// Forward terminal resizes to the pty.
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		for range winch {
			_ = pty.InheritSize(os.Stdin, ptmx)
		}
	}()
	winch <- syscall.SIGWINCH // initial size
	defer func() { signal.Stop(winch); close(winch) }()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("setting raw mode: %w", err)
	}
	defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	return cmd.Wait()
}
