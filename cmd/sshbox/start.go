// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sshbox-cli/internal/imagebuild"
	"sshbox-cli/internal/pipeline"
)

// startCmd starts the box container, building the image if needed.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the box's container",
	Long: `Start a detached container for the boxfile's spec.

The image is built first when it is not cached. Starting a box whose
container is already running is a no-op. No key authorization or
readiness wait happens; use 'sshbox up' for the full pipeline.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	addBoxfileFlag(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}

	r, engine, err := newRunner()
	if err != nil {
		return err
	}

	builder := imagebuild.NewBuilder(engine, log.Default())
	tag, err := builder.Build(cmd.Context(), spec, imagebuild.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return &ExitError{Code: pipeline.ExitBuild, Err: err}
	}

	handle, err := r.Start(cmd.Context(), spec, tag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return &ExitError{Code: pipeline.ExitRun, Err: err}
	}

	fmt.Printf("%s Started %s (%s) on %s\n", SuccessStyle.Render("✓"),
		CmdStyle.Render(spec.Name), shortID(handle.ID), sshAddr(handle.HostPort))
	return nil
}

// shortID trims container IDs for display the way the engines do.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
