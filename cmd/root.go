// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	socketPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lcdglow",
	Short: "lcdglow - LCD streamer and LED ring mirror for liquid cooler pump caps",
	Long: `lcdglow drives the round LCD on a liquid cooler pump cap over USB HID and
mirrors the displayed image's rim colors onto the cooler's LED ring.

The daemon renders a still image, an animated GIF or a built-in test
pattern to the panel at a fixed frame rate. The LED ring follows the
panel by sampling 24 points around the rim of every frame, so the
lighting appears to spill out of the screen.

Features:
  - JPEG frame streaming over fixed-size HID packets
  - Animated GIF playback with per-frame disposal
  - LED ring mirroring through an OpenRGB SDK server
  - Runtime source switching via Unix Domain Socket
  - Prometheus metrics (optional)`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/lcdglow/config.yml",
		"config file path")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "/var/run/lcdglow.sock",
		"daemon socket path")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(validateCmd)
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
