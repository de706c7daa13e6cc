// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sshbox-cli/internal/container"
	"sshbox-cli/internal/pipeline"
)

// shellCmd opens an interactive shell inside a running box.
var shellCmd = &cobra.Command{
	Use:   "shell [box]",
	Short: "Open an interactive shell inside a running box",
	Long: `Open an interactive login shell inside a box's container.

This goes through the container engine's exec channel, not SSH, so it
works even before keys are authorized. Use plain 'ssh <name>.box' for
the SSH path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShell,
}

func init() {
	addBoxfileFlag(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	name, err := requireBoxArg(args)
	if err != nil {
		return err
	}
	spec, err := loadSpec()
	if err != nil {
		return err
	}

	r, engine, err := newRunner()
	if err != nil {
		return err
	}
	status, err := r.Status(cmd.Context(), name)
	if err != nil {
		return err
	}
	if status.State != container.StateRunning {
		msg := fmt.Sprintf("box %s is %s; start it first", name, status.State)
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), msg)
		return &ExitError{Code: pipeline.ExitRun, Err: fmt.Errorf("%s", msg)}
	}

	return runShellSession(engine.Name(), status.Handle.ID, spec.User)
}
