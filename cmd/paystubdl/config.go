package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"paystubdl/pkg/config"
	"paystubdl/pkg/ui"
)

var initUsername string

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `Manage the paystubdl configuration file.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (PAYSTUBDL_*, also read from .env files)
  - Configuration file (JSON, YAML or TOML by extension)
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Long: `Write the default configuration to $HOME/.adp-downloader-config.json, or to
the path given with --config. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	Run:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	Run:   runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	Run:   runConfigValidate,
}

func init() {
	configInitCmd.Flags().StringVarP(&initUsername, "username", "u", "", "portal username to write into the file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

// writeDefaultConfig creates path holding the default configuration
func writeDefaultConfig(path, username string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg := config.DefaultConfig()
	cfg.Username = username
	return cfg.Save(path)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if err := writeDefaultConfig(path, initUsername); err != nil {
		ui.PrintError("Failed to write configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration written to " + path)
	if initUsername == "" {
		ui.PrintWarning("Set username in the file before the first run")
	}
	fmt.Fprintln(ui.Stdout, ui.Dim("Store the password with 'paystubdl auth login' rather than in the file"))
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Stdout)
	fmt.Fprint(ui.Stdout, string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if _, err := loadConfig(cmd); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
}
