// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sshbox-cli/internal/config"
)

var (
	// configCmd manages the application configuration.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage sshbox configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE:  runConfigPath,
	}
)

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	fmt.Print(config.GenerateCUE(cfg))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.CreateDefaultConfig(); err != nil {
		return err
	}
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	path := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	fmt.Printf("%s Config at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
