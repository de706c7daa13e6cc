// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sshbox-cli/internal/container"
	"sshbox-cli/internal/health"
	"sshbox-cli/internal/runner"
)

// statusCmd reports tracked boxes and their live state.
var statusCmd = &cobra.Command{
	Use:   "status [box]",
	Short: "Show tracked boxes and their state",
	Long: `Show every tracked box, or the details of one box.

For a single box the SSH endpoint is probed once, so the output tells
apart a running container from one whose sshd actually answers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	r, _, err := newRunner()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return statusOne(cmd, r, args[0])
	}

	statuses, err := r.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Println(SubtitleStyle.Render("No boxes tracked. Run 'sshbox up' to create one."))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tENDPOINT\tIMAGE\tCONTAINER")
	for _, s := range statuses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.Handle.Name, renderState(s.State), sshAddr(s.Handle.HostPort),
			s.Handle.Image, shortID(s.Handle.ID))
	}
	return w.Flush()
}

func statusOne(cmd *cobra.Command, r *runner.Runner, name string) error {
	status, err := r.Status(cmd.Context(), name)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", TitleStyle.Render(status.Handle.Name))
	fmt.Printf("  state     %s\n", renderState(status.State))
	fmt.Printf("  container %s\n", shortID(status.Handle.ID))
	fmt.Printf("  image     %s\n", status.Handle.Image)
	fmt.Printf("  endpoint  %s\n", sshAddr(status.Handle.HostPort))
	fmt.Printf("  created   %s\n", status.Handle.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	if status.State == container.StateRunning {
		result, err := health.WaitReady(cmd.Context(), sshAddr(status.Handle.HostPort), health.Options{})
		if err != nil {
			return err
		}
		if result.State == health.StateReady {
			fmt.Printf("  ssh       %s\n", SuccessStyle.Render("ready"))
		} else {
			fmt.Printf("  ssh       %s\n", WarningStyle.Render("not answering"))
		}
	}
	return nil
}

func renderState(state container.ContainerState) string {
	switch state {
	case container.StateRunning:
		return SuccessStyle.Render(string(state))
	case container.StateStopped:
		return WarningStyle.Render(string(state))
	default:
		return ErrorStyle.Render(string(state))
	}
}
