// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for sshbox.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sshbox-cli/internal/config"
	"sshbox-cli/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the loaded application configuration, available to all
	// subcommands after initRootConfig ran.
	cfg = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "sshbox",
		Short: "SSH-ready dev containers from a declarative spec",
		Long: TitleStyle.Render("sshbox") + SubtitleStyle.Render(" - SSH-ready dev containers from a declarative spec") + `

sshbox provisions disposable development containers you can SSH into.
A boxfile describes the image (base, packages, user, mounts) and sshbox
handles the rest: client keypair, image build, container start, key
authorization, and a readiness wait, each step gated on the previous one.

Boxes are defined in 'boxfile.cue' files using CUE format. Images are
content-addressed, so an unchanged boxfile reuses the cached image.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'sshbox init' to create a starter boxfile
  2. Adjust the base image, packages, and host port
  3. Run 'sshbox up' and connect with 'ssh <name>.box'

` + SubtitleStyle.Render("Examples:") + `
  sshbox up                 Provision the box from ./boxfile.cue
  sshbox status             Show all tracked boxes
  sshbox shell              Open a shell inside the box
  sshbox stop               Stop the box's container
  sshbox remove             Remove the container and its handle`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/sshbox/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(authorizeCmd)
	rootCmd.AddCommand(waitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(docsCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	loaded, err := config.NewProvider().Load(context.Background(), config.LoadOptions{
		ConfigFilePath: cfgFile,
	})
	if err != nil {
		// Config problems degrade to defaults but are always surfaced.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	} else {
		cfg = loaded
	}

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
