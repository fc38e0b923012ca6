// Package cmd implements CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lcdglow/lcdglow/internal/daemon"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lcdglow daemon in foreground",
	Long: `Run the lcdglow daemon process in foreground.

The daemon will:
  1. Load global configuration from the config file
  2. Initialize logging and metrics
  3. Open the panel HID device and start streaming frames
  4. Connect to the OpenRGB server and mirror the ring (if enabled)
  5. Start the UDS server for CLI control
  6. Handle signals for graceful shutdown (SIGTERM, SIGINT) and reload (SIGHUP)`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDaemon(cmd); err != nil {
			slog.Error("daemon failed", "error", err)
			os.Exit(1)
		}
	},
}

var (
	pidFile    string
	sourcePath string
)

func init() {
	runCmd.Flags().StringVarP(&pidFile, "pidfile", "p", "",
		"PID file path (default from config)")
	runCmd.Flags().StringVar(&sourcePath, "source",
		"", "image or GIF to display (default from config, else test pattern)")
}

func runDaemon(cmd *cobra.Command) error {
	// The stock config path is optional; an explicitly given one is not.
	cfgPath := configFile
	if !cmd.Flag("config").Changed {
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			cfgPath = ""
		}
	}

	// The socket flag beats the config only when actually set.
	sock := ""
	if cmd.Flag("socket").Changed {
		sock = socketPath
	}

	fmt.Println("Starting lcdglow daemon...")
	if cfgPath != "" {
		fmt.Printf("Config: %s\n", cfgPath)
	} else {
		fmt.Println("Config: built-in defaults")
	}

	// Create daemon instance
	d, err := daemon.New(cfgPath, sock, pidFile, sourcePath)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	// Start all components
	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Run main loop (blocks until shutdown)
	return d.Run()
}
