package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oceanq",
	Short: "Load and query ARGO float measurements in PostgreSQL",
	Long: `oceanq loads ARGO oceanographic CSV exports into a PostgreSQL table
and answers a fixed set of queries over it: samples, counts, location and
date range filters, and a dataset summary.

Every query prints a JSON envelope with success, message, data and metadata.

Connection settings come from DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD
and DB_SSLMODE, read from the environment or a .env file.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied table replacement
  13 - SQL execution failed
  14 - CSV source not found
  15 - CSV does not match the measurement schema
  16 - Query parameter rejected`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("env-file", "", "Read connection settings from this file instead of ./.env")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

func getEnvFileFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return ""
	}
	return path
}
