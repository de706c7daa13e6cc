// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sshbox-cli/internal/access"
	"sshbox-cli/internal/issue"
	"sshbox-cli/internal/keymgr"
	"sshbox-cli/internal/pipeline"
)

// authorizeCmd installs the client public key into a running box.
var authorizeCmd = &cobra.Command{
	Use:   "authorize [box]",
	Short: "Install the client public key into a running box",
	Long: `Install the client public key into a box's authorized_keys.

The box must be running. Authorizing the same key twice is a no-op, so
re-running after a key rotation is safe.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthorize,
}

func init() {
	addBoxfileFlag(authorizeCmd)
}

func runAuthorize(cmd *cobra.Command, args []string) error {
	name, err := requireBoxArg(args)
	if err != nil {
		return err
	}
	spec, err := loadSpec()
	if err != nil {
		return err
	}

	path, err := keyPath()
	if err != nil {
		return err
	}
	pair, err := keymgr.Load(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("load keypair").
			WithResource(path).
			WithSuggestion("Run 'sshbox key generate' to create one").
			Wrap(err).
			BuildError()
	}

	r, engine, err := newRunner()
	if err != nil {
		return err
	}
	status, err := r.Status(cmd.Context(), name)
	if err != nil {
		return err
	}

	configurator := access.NewConfigurator(engine, log.Default())
	if err := configurator.Authorize(cmd.Context(), status.Handle.ID, spec.User, pair.AuthorizedKey()); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
		return &ExitError{Code: pipeline.ExitAccess, Err: err}
	}

	fmt.Printf("%s Authorized key for %s@%s\n", SuccessStyle.Render("✓"), spec.User, CmdStyle.Render(name))
	return nil
}
