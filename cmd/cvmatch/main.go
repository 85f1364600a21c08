// Package main provides the cvmatch CLI: HTTP API server, offline matcher and document ingester.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	envName    string
)

var rootCmd = &cobra.Command{
	Use:           "cvmatch",
	Short:         "Explainable CV to job description matching",
	Long:          "cvmatch scores CVs against a job description from per-item embeddings and explains every score.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (default: config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "Environment name: local, dev, prod (default: $ENV or local)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
