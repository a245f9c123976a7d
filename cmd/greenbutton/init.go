package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/youpower/greenbutton/internal/config"
)

//go:embed templates/greenbutton.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a greenbutton configuration file",
		Long: `Init writes a commented .greenbutton configuration file.

The file documents every option: login flow and portal URLs, browser
settings, wait timeouts and extra element selectors. Credentials do not
belong in it; use PGE_USERNAME and PGE_PASSWORD instead.

Examples:
  # Create .greenbutton in the current directory
  greenbutton init

  # Create the file at a specific path
  greenbutton init -o ~/.config/greenbutton/config.yaml

  # Overwrite an existing file
  greenbutton init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/greenbutton.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to adjust:")
	fmt.Fprintln(out, "  - the login flow (desktop or mobile) and portal URLs")
	fmt.Fprintln(out, "  - browser and timeout settings")
	fmt.Fprintln(out, "  - element selectors when the portal layout changes")
	return nil
}
