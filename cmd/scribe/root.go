package main

import (
	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/api"
	"github.com/abapscribe/scribe/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Requirement-to-ABAP generation service",
	Long: `Scribe turns SAP user demand documents into formatted specification
documents and generated ABAP programs.

The pipeline includes:
  - Section splitting against the canonical specification outline
  - LLM-powered program generation, per unit or whole-program
  - Field and requirement-coverage analysis of the generated code
  - DOCX rendering of both the specification and the program`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.scribe/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "scribe home directory (default: ~/.scribe)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
