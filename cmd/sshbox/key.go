// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sshbox-cli/internal/issue"
	"sshbox-cli/internal/keymgr"
	"sshbox-cli/internal/pipeline"
)

var (
	keyOverwrite bool

	// keyCmd manages the client keypair.
	keyCmd = &cobra.Command{
		Use:   "key",
		Short: "Manage the client SSH keypair",
	}

	keyGenerateCmd = &cobra.Command{
		Use:   "generate",
		Short: "Generate the client keypair",
		Long: `Generate the client SSH keypair used to access boxes.

An existing keypair is never replaced unless --overwrite is given.`,
		Args: cobra.NoArgs,
		RunE: runKeyGenerate,
	}

	keyShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the public key in authorized_keys format",
		Args:  cobra.NoArgs,
		RunE:  runKeyShow,
	}
)

func init() {
	keyGenerateCmd.Flags().BoolVar(&keyOverwrite, "overwrite", false, "replace an existing keypair")
	keyCmd.AddCommand(keyGenerateCmd)
	keyCmd.AddCommand(keyShowCmd)
}

func runKeyGenerate(cmd *cobra.Command, args []string) error {
	path, err := keyPath()
	if err != nil {
		return err
	}

	pair, err := keymgr.Generate(path, keymgr.GenerateOptions{
		Algorithm: keyAlgorithm(),
		Overwrite: keyOverwrite,
	})
	if err != nil {
		if errors.Is(err, keymgr.ErrKeyExists) {
			printIssue(issue.KeyAlreadyExistsId)
			return issue.NewErrorContext().
				WithOperation("generate keypair").
				WithResource(path).
				WithSuggestion("Pass --overwrite to replace the existing keypair").
				WithSuggestion("Boxes authorized with the old key will need re-authorization").
				Wrap(err).
				BuildError()
		}
		return &ExitError{Code: pipeline.ExitKey, Err: err}
	}

	fmt.Printf("%s Generated %s keypair\n", SuccessStyle.Render("✓"), pair.Algorithm)
	fmt.Printf("  private %s\n", pair.PrivateKeyPath)
	fmt.Printf("  public  %s\n", pair.PublicKeyPath)
	return nil
}

func runKeyShow(cmd *cobra.Command, args []string) error {
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

	fmt.Println(pair.AuthorizedKey())
	return nil
}
