package daemon

import (
	"os"
	"testing"

	"github.com/lcdglow/lcdglow/internal/ring"
)

func TestDaemon_ReloadLogLevel(t *testing.T) {
	configPath := writeConfigFile(t, `
lcdglow:
  log:
    level: info
    format: text
  ring:
    enabled: false
`)

	d, err := New(configPath, "/tmp/reload-test.sock", "", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if d.config.Log.Level != "info" {
		t.Fatalf("initial log level = %s, want info", d.config.Log.Level)
	}

	newContent := `
lcdglow:
  log:
    level: debug
    format: text
  ring:
    enabled: false
`
	if err := os.WriteFile(configPath, []byte(newContent), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	if err := d.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if d.config.Log.Level != "debug" {
		t.Errorf("log level after reload = %s, want debug", d.config.Log.Level)
	}
}

func TestDaemon_ReloadInvalidConfigKeepsOld(t *testing.T) {
	configPath := writeConfigFile(t, `
lcdglow:
  log:
    level: warn
  ring:
    enabled: false
`)

	d, err := New(configPath, "/tmp/reload-test.sock", "", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := os.WriteFile(configPath, []byte("lcdglow:\n  log:\n    level: shouting\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	if err := d.Reload(); err == nil {
		t.Fatal("expected error for invalid config")
	}
	if d.config.Log.Level != "warn" {
		t.Errorf("log level after failed reload = %s, want warn", d.config.Log.Level)
	}
}

func TestDaemon_ReloadRingFactors(t *testing.T) {
	configPath := writeConfigFile(t, `
lcdglow:
  ring:
    enabled: false
    smoothing: 0.25
    saturation: 1.25
`)

	d, err := New(configPath, "/tmp/reload-test.sock", "", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.sampler = ring.NewSampler(ring.SamplerConfig{
		SaturationFactor: d.config.Ring.Saturation,
		SmoothingFactor:  d.config.Ring.Smoothing,
	})

	newContent := `
lcdglow:
  ring:
    enabled: false
    smoothing: 0.5
    saturation: 1.0
`
	if err := os.WriteFile(configPath, []byte(newContent), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	if err := d.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if d.config.Ring.Smoothing != 0.5 {
		t.Errorf("smoothing after reload = %v, want 0.5", d.config.Ring.Smoothing)
	}
	if d.config.Ring.Saturation != 1.0 {
		t.Errorf("saturation after reload = %v, want 1.0", d.config.Ring.Saturation)
	}
}
