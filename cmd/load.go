// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load <image>",
	Short: "Display an image or GIF on the panel",
	Long: `Load a still image (PNG/JPEG) or an animated GIF and display it on the
panel. The daemon swaps the source at the next frame tick; the LED ring
follows automatically.

The path is resolved on the client side, so relative paths work no matter
where the daemon was started.

Examples:
  lcdglow load wallpaper.png
  lcdglow load ~/gifs/nyan.gif`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd.Context(), newClient(), cmd.OutOrStdout(), args[0])
	},
}

// runLoad is the extracted command body, testable with a mock client.
func runLoad(ctx context.Context, client controlClient, out io.Writer, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	resp, err := client.SourceLoad(ctx, abs)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("source_load failed: %s", resp.Error.Message)
	}

	name := abs
	if result, ok := resp.Result.(map[string]interface{}); ok {
		if s, ok := result["source"].(string); ok {
			name = s
		}
	}
	fmt.Fprintf(out, "✓ Now showing %s\n", name)
	return nil
}
