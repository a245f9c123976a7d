package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for greenbutton.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greenbutton",
		Short: "Download PG&E Green Button usage data",
		Long: `greenbutton drives a Chrome browser through the PG&E customer portal:
it signs in, opens the energy usage details, selects a date range and
downloads the Green Button export into a local directory.

Credentials are read from PGE_USERNAME and PGE_PASSWORD (a .env file in
the current directory is loaded), --username, or --password-stdin.
They are never written to disk or logs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
