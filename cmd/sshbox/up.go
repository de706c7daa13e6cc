// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sshbox-cli/internal/pipeline"
)

var (
	upRebuild bool

	// upCmd provisions a box end to end.
	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Provision the box: key, image, container, access, health",
		Long: `Provision a dev box from the boxfile in one run.

The stages run strictly in order: client keypair, image build, container
start, key authorization, readiness wait. A stage only runs when every
stage before it succeeded, and each stage maps to its own exit code so
scripts can tell where a run failed.`,
		Args: cobra.NoArgs,
		RunE: runUp,
	}
)

func init() {
	addBoxfileFlag(upCmd)
	upCmd.Flags().BoolVar(&upRebuild, "rebuild", false, "rebuild the image even when cached")
}

func runUp(cmd *cobra.Command, args []string) error {
	spec, err := loadSpec()
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}
	store, err := newStore()
	if err != nil {
		return err
	}
	kp, err := keyPath()
	if err != nil {
		return err
	}
	sshCfgPath, err := sshConfigPath()
	if err != nil {
		return err
	}

	p := pipeline.NewFromEngine(engine, store, log.Default())
	result, err := p.Up(cmd.Context(), spec, pipeline.Options{
		KeyPath:       kp,
		KeyAlgorithm:  keyAlgorithm(),
		ForceRebuild:  upRebuild,
		BuildOutput:   buildOutputWriter(verbose),
		WaitTimeout:   cfg.Health.Timeout(),
		WaitInterval:  cfg.Health.Interval(),
		SSHConfigPath: sshCfgPath,
	})
	if err != nil {
		if id, ok := issueFor(err); ok {
			printIssue(id)
		}
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return stageExit(err)
	}

	fmt.Printf("%s Box %s is ready\n", SuccessStyle.Render("✓"), CmdStyle.Render(spec.Name))
	fmt.Printf("  image     %s\n", result.Image)
	fmt.Printf("  container %s\n", result.Handle.ID)
	fmt.Printf("  endpoint  %s\n", sshAddr(result.Handle.HostPort))
	fmt.Println()
	if sshCfgPath != "" {
		fmt.Printf("Connect with: %s\n", CmdStyle.Render("ssh "+spec.Name+".box"))
	} else {
		fmt.Printf("Connect with: %s\n", CmdStyle.Render(fmt.Sprintf(
			"ssh -i %s -p %d %s@127.0.0.1", result.Key.PrivateKeyPath, result.Handle.HostPort, spec.User)))
	}
	return nil
}

// buildOutputWriter returns the stream for engine build output. It must
// return a true nil interface when output is discarded: wrapping a nil
// *os.File in io.Writer would hand the build child an invalid fd instead
// of /dev/null.
func buildOutputWriter(verbose bool) io.Writer {
	if !verbose {
		return nil
	}
	return os.Stderr
}
