// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sshbox-cli/pkg/boxfile"
)

var (
	initForce bool

	// initCmd creates a new boxfile
	initCmd = &cobra.Command{
		Use:   "init [name]",
		Short: "Create a new boxfile in the current directory",
		Long: `Create a new boxfile in the current directory with a starter spec.

The generated boxfile describes a small Ubuntu-based box; adjust the
base image, packages, and host port before running 'sshbox up'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing boxfile")
}

func runInit(cmd *cobra.Command, args []string) error {
	name := "dev"
	if len(args) > 0 {
		name = args[0]
	}

	filename := boxfile.DefaultFileName
	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	content := generateBoxfile(name)

	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit the boxfile to pick packages and a host port")
	fmt.Println("  2. Run 'sshbox up' to provision the box")
	fmt.Printf("  3. Connect with 'ssh %s.box'\n", name)

	return nil
}

func generateBoxfile(name string) string {
	return fmt.Sprintf(`// sshbox boxfile
// Run 'sshbox up' to provision this box.

box: {
	name:      %q
	baseImage: "ubuntu:22.04"

	// Extra packages installed into the image (openssh-server is implied).
	packages: ["git", "curl", "build-essential"]

	// The account created inside the box.
	user: "dev"

	// Host port the box's sshd is published on.
	hostPort: 2222

	// Host directories mounted into the box.
	// mounts: [
	// 	{hostPath: "/home/me/src", containerPath: "/workspace"},
	// ]
}
`, name)
}
