// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// reloadCmd represents the reload command
var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload daemon configuration",
	Long: `Tell the daemon to re-read its configuration file.

Hot-reloaded: log level and format, ring saturation and smoothing.
Everything else requires a restart; changed cold settings are reported in
the daemon log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReload(cmd.Context(), newClient(), cmd.OutOrStdout())
	},
}

// runReload is the extracted command body, testable with a mock client.
func runReload(ctx context.Context, client controlClient, out io.Writer) error {
	resp, err := client.ConfigReload(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("config_reload failed: %s", resp.Error.Message)
	}

	fmt.Fprintln(out, "✓ Configuration reloaded successfully")
	return nil
}
