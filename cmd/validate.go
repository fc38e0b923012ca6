// Package cmd implements CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcdglow/lcdglow/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a lcdglow configuration file without starting the daemon.

This is useful for pre-checking configuration before restarting the daemon.

Examples:
  lcdglow validate
  lcdglow validate -c ./config.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidateCommand()
	},
}

func runValidateCommand() {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		os.Exit(1)
	}

	ringState := "disabled"
	if cfg.Ring.Enabled {
		ringState = fmt.Sprintf("enabled (%s / %s @ %s)",
			cfg.Ring.Device, cfg.Ring.Zone, cfg.Ring.Server)
	}
	fmt.Printf("VALID: panel %dx%d @ %d fps, ring %s\n",
		cfg.Panel.Width, cfg.Panel.Height, cfg.Panel.FPS, ringState)
}
