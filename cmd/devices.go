// Package cmd implements CLI commands.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lcdglow/lcdglow/internal/config"
	"github.com/lcdglow/lcdglow/internal/panel"
	"github.com/lcdglow/lcdglow/internal/ring"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List panel and LED devices",
	Long: `List the USB HID panels matching the configured vendor/product ID and,
when an OpenRGB server is reachable, the LED controllers and zones it
exposes.

Use this to find the right ring.device and ring.zone values for the
configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		runDevicesCommand(cmd)
	},
}

func runDevicesCommand(cmd *cobra.Command) {
	cfg := loadCLIConfig(cmd)

	fmt.Printf("Panels (vendor %#04x, product %#04x):\n",
		cfg.Panel.VendorID, cfg.Panel.ProductID)
	infos, err := panel.List(cfg.Panel.VendorID, cfg.Panel.ProductID)
	switch {
	case err != nil:
		fmt.Printf("  enumeration failed: %v\n", err)
	case len(infos) == 0:
		fmt.Println("  none found")
	default:
		for _, info := range infos {
			fmt.Printf("  %s  %s %s  interface=%d serial=%s\n",
				info.Path, info.Manufacturer, info.Product, info.Interface, info.Serial)
		}
	}

	fmt.Printf("\nLED controllers (%s):\n", cfg.Ring.Server)
	backend, err := ring.DialOpenRGB(cfg.Ring.Server, cfg.Ring.ClientName, 5*time.Second)()
	if err != nil {
		fmt.Printf("  server not reachable: %v\n", err)
		return
	}
	defer backend.Close()

	devices, err := backend.Devices()
	if err != nil {
		fmt.Printf("  enumeration failed: %v\n", err)
		return
	}
	if len(devices) == 0 {
		fmt.Println("  none found")
		return
	}
	for _, dev := range devices {
		fmt.Printf("  [%d] %s (%d LEDs)\n", dev.ID, dev.Name, dev.LEDs)
		for _, zone := range dev.Zones {
			fmt.Printf("      zone %d: %s (%d LEDs)\n", zone.Index, zone.Name, zone.LEDs)
		}
	}
}

// loadCLIConfig loads the config for client-side commands, falling back to
// built-in defaults when the stock path does not exist.
func loadCLIConfig(cmd *cobra.Command) *config.GlobalConfig {
	cfgPath := configFile
	if !cmd.Flag("config").Changed {
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return config.Default()
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		exitWithError("failed to load config", err)
	}
	return cfg
}
