// SPDX-License-Identifier: MPL-2.0

//go:build windows

package cmd

import (
	"os"
	"os/exec"
)

// runShellSession runs an interactive shell in the container. Windows has
// no pty support here; the engine binary handles the console directly.
func runShellSession(engineBinary, containerID, user string) error {
	cmd := exec.Command(engineBinary, "exec", "-it", "-u", user, containerID, "/bin/bash", "-l")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
