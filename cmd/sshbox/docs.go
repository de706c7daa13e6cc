// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"
)

//go:embed docs_guide.md
var docsGuide string

// docsCmd renders the built-in user guide in the terminal.
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the sshbox user guide",
	Args:  cobra.NoArgs,
	RunE:  runDocs,
}

func runDocs(cmd *cobra.Command, args []string) error {
	styleOpt := glamour.WithStylePath(glamourStyle())
	if glamourStyle() == styles.AutoStyle {
		styleOpt = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Fall back to plain markdown when the renderer cannot start.
		fmt.Print(docsGuide)
		return nil
	}

	out, err := renderer.Render(docsGuide)
	if err != nil {
		fmt.Print(docsGuide)
		return nil
	}
	fmt.Print(out)
	return nil
}
