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

var (
	buildRebuild bool
	buildPrint   bool

	// buildCmd builds the box image without starting a container.
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the box image",
		Long: `Build the image described by the boxfile.

The image tag embeds a hash of the rendered build definition, so an
unchanged boxfile resolves to the cached image and the build is skipped.`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}
)

func init() {
	addBoxfileFlag(buildCmd)
	buildCmd.Flags().BoolVar(&buildRebuild, "rebuild", false, "rebuild even when the image is cached")
	buildCmd.Flags().BoolVar(&buildPrint, "print", false, "print the rendered Dockerfile instead of building")
}

func runBuild(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}

	if buildPrint {
		fmt.Print(imagebuild.RenderDockerfile(spec))
		return nil
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	builder := imagebuild.NewBuilder(engine, log.Default())
	tag, err := builder.Build(cmd.Context(), spec, imagebuild.Options{
		ForceRebuild: buildRebuild,
		Output:       os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return &ExitError{Code: pipeline.ExitBuild, Err: err}
	}

	fmt.Printf("%s Image ready: %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(tag))
	return nil
}
