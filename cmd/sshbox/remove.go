// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sshbox-cli/internal/access"
	"sshbox-cli/internal/pipeline"
)

var (
	removeForce bool

	// removeCmd removes a box's container and handle.
	removeCmd = &cobra.Command{
		Use:   "remove [box]",
		Short: "Remove a box's container and forget it",
		Long: `Remove the container of a box and drop its tracked handle.

The managed Host block in the SSH client config is removed as well.
Removing a box that is already gone succeeds.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRemove,
	}
)

func init() {
	addBoxfileFlag(removeCmd)
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "remove even while running")
}

func runRemove(cmd *cobra.Command, args []string) error {
	name, err := requireBoxArg(args)
	if err != nil {
		return err
	}

	r, _, err := newRunner()
	if err != nil {
		return err
	}

	if err := r.Remove(cmd.Context(), name, removeForce); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return &ExitError{Code: pipeline.ExitRun, Err: err}
	}

	if sshCfgPath, err := sshConfigPath(); err == nil && sshCfgPath != "" {
		if err := access.RemoveClientConfig(sshCfgPath, name+".box"); err != nil {
			fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		}
	}

	fmt.Printf("%s Removed %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(name))
	return nil
}
