// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// GlobalConfig is the top-level static configuration.
// Maps to the `lcdglow:` root key in YAML.
type GlobalConfig struct {
	Panel   PanelConfig   `mapstructure:"panel"`
	Ring    RingConfig    `mapstructure:"ring"`
	Source  SourceConfig  `mapstructure:"source"`
	Control ControlConfig `mapstructure:"control"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// ─── Panel Transport ───

// PanelConfig describes the LCD panel and its frame transport.
type PanelConfig struct {
	VendorID    uint16 `mapstructure:"vendor_id"`    // USB vendor, default 0x1b1c
	ProductID   uint16 `mapstructure:"product_id"`   // USB product, default 0x0c39
	Width       int    `mapstructure:"width"`        // native raster width
	Height      int    `mapstructure:"height"`       // native raster height
	PacketSize  int    `mapstructure:"packet_size"`  // HID write size incl. header
	Opcode      uint8  `mapstructure:"opcode"`       // image data opcode
	FPS         int    `mapstructure:"fps"`          // panel refresh ticks per second
	JPEGQuality int    `mapstructure:"jpeg_quality"` // 1..100
}

// ─── LED Ring Mirror ───

// RingConfig describes the LED ring mirroring path. Duration fields are
// strings parsed at use site with a logged fallback.
type RingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	Server            string  `mapstructure:"server"`     // OpenRGB SDK address
	Interval          string  `mapstructure:"interval"`   // sampling period, e.g. "100ms"
	Smoothing         float64 `mapstructure:"smoothing"`  // exponential smoothing alpha, 0..1
	Saturation        float64 `mapstructure:"saturation"` // saturation boost factor
	SampleSize        int     `mapstructure:"sample_size"`
	Device            string  `mapstructure:"device"` // controller name to match
	Zone              string  `mapstructure:"zone"`   // zone name within the device
	ConnectRetryDelay string  `mapstructure:"connect_retry_delay"`
	SettleDelay       string  `mapstructure:"settle_delay"`
	ClientName        string  `mapstructure:"client_name"`
}

// ─── Capture Source ───

// SourceConfig selects the initial displayed content. An empty path starts
// the built-in test pattern; the control socket can swap sources at runtime.
type SourceConfig struct {
	Path string `mapstructure:"path"`
}

// ─── Control Plane ───

// ControlConfig contains local control plane settings.
type ControlConfig struct {
	Socket  string `mapstructure:"socket"`
	PIDFile string `mapstructure:"pid_file"`
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`  // debug / info / warn / error
	Format  string           `mapstructure:"format"` // json / text / pretty
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains structured log output destinations. Stdout is
// always written to; the file output is additive.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `lcdglow: ...`.
type configRoot struct {
	LCDGlow GlobalConfig `mapstructure:"lcdglow"`
}

// Load loads configuration from file.
// The YAML file uses `lcdglow:` as root key; env vars use the LCDGLOW_ prefix
// (e.g., LCDGLOW_LOG_LEVEL overrides lcdglow.log.level).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variable overrides. No explicit env prefix; the `lcdglow.`
	// key prefix maps to `LCDGLOW_` via the key replacer (e.g., key
	// "lcdglow.panel.fps" reads env "LCDGLOW_PANEL_FPS").
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.LCDGlow

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default creates the configuration used when no config file is given.
func Default() *GlobalConfig {
	v := viper.New()
	setDefaults(v)

	var root configRoot
	// Defaults alone always unmarshal and validate.
	if err := v.Unmarshal(&root); err != nil {
		panic(fmt.Sprintf("config: default unmarshal: %v", err))
	}
	cfg := root.LCDGlow
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		panic(fmt.Sprintf("config: default validation: %v", err))
	}
	return &cfg
}

// setDefaults sets default values for configuration.
// All keys use the "lcdglow." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	// Panel defaults: the Elite Capellix LCD cap.
	v.SetDefault("lcdglow.panel.vendor_id", 0x1b1c)
	v.SetDefault("lcdglow.panel.product_id", 0x0c39)
	v.SetDefault("lcdglow.panel.width", 480)
	v.SetDefault("lcdglow.panel.height", 480)
	v.SetDefault("lcdglow.panel.packet_size", 1024)
	v.SetDefault("lcdglow.panel.opcode", 0x02)
	v.SetDefault("lcdglow.panel.fps", 30)
	v.SetDefault("lcdglow.panel.jpeg_quality", 95)

	// Ring defaults
	v.SetDefault("lcdglow.ring.enabled", true)
	v.SetDefault("lcdglow.ring.server", "127.0.0.1:6742")
	v.SetDefault("lcdglow.ring.interval", "100ms")
	v.SetDefault("lcdglow.ring.smoothing", 0.25)
	v.SetDefault("lcdglow.ring.saturation", 1.25)
	v.SetDefault("lcdglow.ring.sample_size", 479)
	v.SetDefault("lcdglow.ring.device", "Corsair Commander Core")
	v.SetDefault("lcdglow.ring.zone", "Pump")
	v.SetDefault("lcdglow.ring.connect_retry_delay", "5s")
	v.SetDefault("lcdglow.ring.settle_delay", "100ms")
	v.SetDefault("lcdglow.ring.client_name", "lcdglow")

	// Control defaults
	v.SetDefault("lcdglow.control.socket", "/var/run/lcdglow.sock")
	v.SetDefault("lcdglow.control.pid_file", "/var/run/lcdglow.pid")

	// Log defaults
	v.SetDefault("lcdglow.log.level", "info")
	v.SetDefault("lcdglow.log.format", "text")
	v.SetDefault("lcdglow.log.outputs.file.enabled", false)
	v.SetDefault("lcdglow.log.outputs.file.path", "/var/log/lcdglow/lcdglow.log")
	v.SetDefault("lcdglow.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("lcdglow.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("lcdglow.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("lcdglow.log.outputs.file.rotation.compress", true)

	// Metrics defaults: off unless asked for, loopback only.
	v.SetDefault("lcdglow.metrics.enabled", false)
	v.SetDefault("lcdglow.metrics.listen", "127.0.0.1:9316")
	v.SetDefault("lcdglow.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration values that have no
// sensible fallback. Duration strings are parsed where they are used.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true, "pretty": true}
	if !validFormats[cfg.Log.Format] {
		return fmt.Errorf("invalid log format: %s (must be json/text/pretty)", cfg.Log.Format)
	}

	// ── Panel validation ──
	if cfg.Panel.Width <= 0 || cfg.Panel.Height <= 0 {
		return fmt.Errorf("invalid panel size: %dx%d", cfg.Panel.Width, cfg.Panel.Height)
	}
	// 8 header bytes must leave payload room.
	if cfg.Panel.PacketSize <= 8 {
		return fmt.Errorf("invalid panel.packet_size: %d (must be > 8)", cfg.Panel.PacketSize)
	}
	if cfg.Panel.FPS < 1 || cfg.Panel.FPS > 120 {
		return fmt.Errorf("invalid panel.fps: %d (must be 1..120)", cfg.Panel.FPS)
	}
	if cfg.Panel.JPEGQuality < 1 || cfg.Panel.JPEGQuality > 100 {
		return fmt.Errorf("invalid panel.jpeg_quality: %d (must be 1..100)", cfg.Panel.JPEGQuality)
	}

	// ── Ring validation ──
	if cfg.Ring.Smoothing < 0 || cfg.Ring.Smoothing > 1 {
		return fmt.Errorf("invalid ring.smoothing: %v (must be 0..1)", cfg.Ring.Smoothing)
	}
	if cfg.Ring.Saturation < 0 {
		return fmt.Errorf("invalid ring.saturation: %v (must be >= 0)", cfg.Ring.Saturation)
	}
	if cfg.Ring.SampleSize <= 0 {
		return fmt.Errorf("invalid ring.sample_size: %d (must be > 0)", cfg.Ring.SampleSize)
	}
	if cfg.Ring.Enabled {
		if cfg.Ring.Server == "" {
			return fmt.Errorf("ring.server is required when ring.enabled=true")
		}
		if cfg.Ring.Device == "" || cfg.Ring.Zone == "" {
			return fmt.Errorf("ring.device and ring.zone are required when ring.enabled=true")
		}
	}

	return nil
}
