// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sshbox-cli/internal/health"
	"sshbox-cli/internal/issue"
	"sshbox-cli/internal/pipeline"
)

var (
	waitTimeout time.Duration

	// waitCmd blocks until a box accepts SSH connections.
	waitCmd = &cobra.Command{
		Use:   "wait [box]",
		Short: "Wait until a box accepts SSH connections",
		Long: `Probe a box's SSH endpoint until it completes a handshake.

A box that rejects the probe's credentials still counts as ready; only
an endpoint that never answers the handshake times out. The timeout
exit code is distinct so scripts can retry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWait,
	}
)

func init() {
	addBoxfileFlag(waitCmd)
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "overall wait deadline (default from config)")
}

func runWait(cmd *cobra.Command, args []string) error {
	name, err := requireBoxArg(args)
	if err != nil {
		return err
	}

	r, _, err := newRunner()
	if err != nil {
		return err
	}
	status, err := r.Status(cmd.Context(), name)
	if err != nil {
		return err
	}

	timeout := resolveWaitTimeout(cmd.Flags(), waitTimeout)

	addr := sshAddr(status.Handle.HostPort)
	result, err := health.WaitReady(cmd.Context(), addr, health.Options{
		Timeout:  timeout,
		Interval: cfg.Health.Interval(),
		Logger:   log.Default(),
	})
	if err != nil {
		return err
	}
	if result.State != health.StateReady {
		printIssue(issue.SSHNotReadyId)
		msg := fmt.Sprintf("box %s did not answer on %s after %d probes", name, addr, result.Attempts)
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), msg)
		return &ExitError{Code: pipeline.ExitHealth, Err: fmt.Errorf("%s", msg)}
	}

	fmt.Printf("%s %s is ready on %s (%s)\n", SuccessStyle.Render("✓"),
		CmdStyle.Render(name), addr, result.Elapsed.Round(time.Millisecond))
	return nil
}

// resolveWaitTimeout keeps an explicit --timeout, including an explicit
// zero requesting a single probe, and only falls back to the configured
// default when the flag was not set at all.
func resolveWaitTimeout(flags *pflag.FlagSet, flagValue time.Duration) time.Duration {
	if flags.Changed("timeout") {
		return flagValue
	}
	return cfg.Health.Timeout()
}
