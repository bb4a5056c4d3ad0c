package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/home"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the scribe configuration file",
	Long: `Manage the scribe configuration file.

The config file declares the LLM providers, the generation strategy, the
server listen address, and the job runner sizing. API keys are referenced
as ${ENV_VAR} placeholders and resolved from the environment (a local
.env file works too).

Examples:
  scribe config init   # Write a commented default config
  scribe config show   # Print the effective configuration`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a commented default config file.

The file lands at --config if given, otherwise in the scribe home
directory. Existing files are never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = h.ConfigPath()
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}

		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := getHome()
		if err != nil {
			return err
		}

		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		manager, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}

		return api.Output(manager.Get())
	},
}

// getHome returns the home directory manager.
func getHome() (*home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}
	return h, nil
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(configCmd)
}
