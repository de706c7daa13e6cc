// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sshbox-cli/internal/pipeline"
)

// stopCmd stops a box's container.
var stopCmd = &cobra.Command{
	Use:   "stop [box]",
	Short: "Stop a box's container",
	Long: `Stop the container of a box.

The box name defaults to the one in ./boxfile.cue. Stopping a box that
is already stopped, or whose container no longer exists, succeeds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStop,
}

func init() {
	addBoxfileFlag(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	name, err := requireBoxArg(args)
	if err != nil {
		return err
	}

	r, _, err := newRunner()
	if err != nil {
		return err
	}

	if err := r.Stop(cmd.Context(), name); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return &ExitError{Code: pipeline.ExitRun, Err: err}
	}

	fmt.Printf("%s Stopped %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(name))
	return nil
}
