// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the lcdglow daemon",
	Long: `Stop the lcdglow daemon gracefully.

This command sends daemon_shutdown to the running daemon via Unix Domain
Socket. The daemon stops the render loops, blanks the LED ring, releases
the panel device and exits cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStop(cmd.Context(), newClient(), cmd.OutOrStdout())
	},
}

// runStop is the extracted command body, testable with a mock client.
func runStop(ctx context.Context, client controlClient, out io.Writer) error {
	resp, err := client.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("daemon is not running or socket is inaccessible: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("daemon_shutdown failed: %s", resp.Error.Message)
	}

	fmt.Fprintln(out, "✓ Shutdown initiated")
	return nil
}
