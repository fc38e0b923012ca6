// Package daemon implements the daemon lifecycle manager.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lcdglow/lcdglow/internal/config"
	"github.com/lcdglow/lcdglow/internal/control"
	logpkg "github.com/lcdglow/lcdglow/internal/log"
	"github.com/lcdglow/lcdglow/internal/metrics"
	"github.com/lcdglow/lcdglow/internal/panel"
	"github.com/lcdglow/lcdglow/internal/ring"
	"github.com/lcdglow/lcdglow/internal/source"
)

// dialTimeout bounds the LED server dial and protocol negotiation.
const dialTimeout = 5 * time.Second

// Daemon manages the lcdglow daemon process lifecycle.
type Daemon struct {
	// Configuration
	config     *config.GlobalConfig
	configPath string
	socketPath string
	pidFile    string

	// Core components
	device        panel.Device
	streamer      *panel.Streamer
	switcher      *source.Switcher
	sampler       *ring.Sampler
	sink          *ring.Sink
	mirror        *ring.Mirror
	handler       *control.Handler
	udsServer     *control.UDSServer
	metricsServer *metrics.Server // nil if metrics disabled

	// Render loops
	group *errgroup.Group
	gctx  context.Context

	// Lifecycle management
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownChan chan struct{}
	sigChan      chan os.Signal // promoted from Run() local for cleanup in Stop()
}

// New creates a new Daemon instance. Empty socketPath, pidFile and
// sourcePath fall back to the loaded configuration.
func New(configPath, socketPath, pidFile, sourcePath string) (*Daemon, error) {
	globalConfig, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if socketPath == "" {
		socketPath = globalConfig.Control.Socket
	}
	if pidFile == "" {
		pidFile = globalConfig.Control.PIDFile
	}
	if sourcePath != "" {
		globalConfig.Source.Path = sourcePath
	}

	d := &Daemon{
		config:       globalConfig,
		configPath:   configPath,
		socketPath:   socketPath,
		pidFile:      pidFile,
		shutdownChan: make(chan struct{}, 1),
	}

	// Create context for lifecycle management
	d.ctx, d.cancel = context.WithCancel(context.Background())

	return d, nil
}

// loadConfig loads the config file, or the built-in defaults when no path
// is given.
func loadConfig(path string) (*config.GlobalConfig, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// Start initializes and starts all daemon components.
func (d *Daemon) Start() error {
	// 1. Initialize logging system
	if err := d.initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	slog.Info("starting lcdglow daemon",
		"version", "0.1.0",
		"config", d.configPath,
		"socket", d.socketPath,
	)

	// 2. Write PID file
	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	// 3. Start metrics server
	if err := d.startMetrics(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	// 4. Build the initial image source
	src, err := d.openInitialSource()
	if err != nil {
		return fmt.Errorf("failed to load source: %w", err)
	}
	d.switcher = source.NewSwitcher(src)
	slog.Info("source ready", "source", src.Name())

	// 5. Open the panel HID device. No panel, no daemon.
	dev, err := panel.Open(d.config.Panel.VendorID, d.config.Panel.ProductID)
	if err != nil {
		return fmt.Errorf("failed to open panel device: %w", err)
	}
	d.device = dev

	// 6. Create the frame streamer
	d.streamer = panel.NewStreamer(dev, d.switcher, panel.Config{
		Width:       d.config.Panel.Width,
		Height:      d.config.Panel.Height,
		PacketSize:  d.config.Panel.PacketSize,
		Opcode:      d.config.Panel.Opcode,
		FPS:         d.config.Panel.FPS,
		JPEGQuality: d.config.Panel.JPEGQuality,
	})

	// 7. Build the LED ring mirror (if enabled)
	if d.config.Ring.Enabled {
		d.buildRing()
	} else {
		slog.Info("ring mirroring disabled")
	}

	// 8. Create command handler and wire shutdown so the daemon_shutdown
	// command can trigger graceful stop
	d.handler = control.NewHandler(d, d)
	d.handler.SetShutdownFunc(func() {
		slog.Info("shutdown triggered via daemon_shutdown command")
		d.TriggerShutdown()
	})

	// 9. Start UDS server for CLI control
	d.udsServer = control.NewUDSServer(d.socketPath, d.handler)
	go func() {
		if err := d.udsServer.Start(d.ctx); err != nil && err != context.Canceled {
			slog.Error("uds server failed", "error", err)
		}
	}()

	// 10. Start the render loops
	d.group, d.gctx = errgroup.WithContext(d.ctx)
	d.group.Go(func() error { return d.streamer.Run(d.gctx) })
	if d.mirror != nil {
		d.group.Go(func() error { return d.mirror.Run(d.gctx) })
	}

	slog.Info("daemon started successfully")
	return nil
}

// openInitialSource builds the source configured at startup. Without a
// configured path the daemon shows the built-in test pattern until the
// control socket swaps something in.
func (d *Daemon) openInitialSource() (source.Source, error) {
	if d.config.Source.Path == "" {
		slog.Info("no source configured, using built-in test pattern")
		return source.NewTestPattern(d.config.Panel.Width, d.config.Panel.Height), nil
	}
	return source.Open(d.config.Source.Path, d.config.Panel.Width, d.config.Panel.Height)
}

// buildRing assembles the sampler, LED sink and mirror loop.
func (d *Daemon) buildRing() {
	rc := d.config.Ring

	d.sampler = ring.NewSampler(ring.SamplerConfig{
		Width:            rc.SampleSize,
		Height:           rc.SampleSize,
		SaturationFactor: rc.Saturation,
		SmoothingFactor:  rc.Smoothing,
	})

	dial := ring.DialOpenRGB(rc.Server, rc.ClientName, dialTimeout)
	d.sink = ring.NewSink(dial, ring.SinkConfig{
		DeviceName:  rc.Device,
		ZoneName:    rc.Zone,
		RetryDelay:  parseDuration(rc.ConnectRetryDelay, ring.DefaultRetryDelay, "ring.connect_retry_delay"),
		SettleDelay: parseDuration(rc.SettleDelay, ring.DefaultSettleDelay, "ring.settle_delay"),
	})

	interval := parseDuration(rc.Interval, ring.DefaultInterval, "ring.interval")
	d.mirror = ring.NewMirror(d.switcher, d.sampler, d.sink, interval)
}

// Stop performs graceful shutdown of all daemon components.
func (d *Daemon) Stop() {
	slog.Info("initiating graceful shutdown")

	// 1. Stop UDS server (no new control commands)
	if d.udsServer != nil {
		slog.Info("stopping uds server")
		d.udsServer.Stop()
	}

	// 2. Stop the render loops
	d.cancel()
	if d.group != nil {
		if err := d.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("render loop error", "error", err)
		}
	}

	// 3. Blank the ring and drop the LED session
	if d.sink != nil {
		slog.Info("closing led sink")
		if err := d.sink.Close(); err != nil {
			slog.Error("error closing led sink", "error", err)
		}
	}

	// 4. Close the panel device
	if d.device != nil {
		slog.Info("closing panel device")
		if err := d.device.Close(); err != nil {
			slog.Error("error closing panel device", "error", err)
		}
	}

	// 5. Stop metrics server
	if d.metricsServer != nil {
		slog.Info("stopping metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsServer.Stop(shutdownCtx); err != nil {
			slog.Error("error stopping metrics server", "error", err)
		}
	}

	// 6. Unregister signal handler to prevent goroutine leak
	if d.sigChan != nil {
		signal.Stop(d.sigChan)
	}

	// 7. Remove PID file
	if err := d.removePIDFile(); err != nil {
		slog.Error("error removing PID file", "error", err)
	}

	// 8. Release log outputs
	logpkg.Close()

	slog.Info("daemon stopped gracefully")
}

// Run runs the daemon main loop, blocking until shutdown is triggered.
// Shutdown can be triggered by:
//  1. OS signals (SIGTERM, SIGINT)
//  2. daemon_shutdown command via the control socket
//  3. a render loop ending
//
// SIGHUP triggers config reload.
func (d *Daemon) Run() error {
	// Setup signal handling
	d.sigChan = make(chan os.Signal, 1)
	signal.Notify(d.sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	slog.Info("daemon running, waiting for signals or commands")

	for {
		select {
		case sig := <-d.sigChan:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				slog.Info("received shutdown signal", "signal", sig)
				d.Stop()
				return nil

			case syscall.SIGHUP:
				slog.Info("received reload signal")
				if err := d.Reload(); err != nil {
					slog.Error("failed to reload config", "error", err)
				} else {
					slog.Info("configuration reloaded successfully")
				}
			}

		case <-d.shutdownChan:
			// Shutdown triggered by daemon_shutdown command
			slog.Info("shutdown triggered by command")
			d.Stop()
			return nil

		case <-d.gctx.Done():
			// A render loop ended, or the context was cancelled externally.
			err := d.group.Wait()
			d.Stop()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}
	}
}

// Reload reloads the global configuration.
// Hot-reloadable: log level/format/outputs, ring saturation and smoothing.
// Cold (requires restart): panel geometry and transport, socket and
// metrics addresses, ring target.
// Implements control.ConfigReloader.
func (d *Daemon) Reload() error {
	slog.Info("reloading configuration", "path", d.configPath)

	newConfig, err := loadConfig(d.configPath)
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	// Track what was hot-reloaded for the log message
	hotReloaded := []string{}

	oldConfig := d.config
	d.config = newConfig

	// 1. Re-initialize logging with new config (log level + format)
	if err := logpkg.Init(newConfig.Log); err != nil {
		slog.Error("failed to reinitialize logging", "error", err)
		// Non-fatal: old logging continues
	} else if newConfig.Log.Level != oldConfig.Log.Level || newConfig.Log.Format != oldConfig.Log.Format {
		hotReloaded = append(hotReloaded, "log")
	}

	// 2. Update the sampler color factors if changed
	if d.sampler != nil &&
		(newConfig.Ring.Saturation != oldConfig.Ring.Saturation ||
			newConfig.Ring.Smoothing != oldConfig.Ring.Smoothing) {
		d.sampler.SetFactors(newConfig.Ring.Saturation, newConfig.Ring.Smoothing)
		hotReloaded = append(hotReloaded, "ring_factors")
	}

	// 3. Warn about cold-reload items that changed
	requiresRestart := []string{}
	if newConfig.Panel != oldConfig.Panel {
		requiresRestart = append(requiresRestart, "panel")
	}
	if newConfig.Control.Socket != oldConfig.Control.Socket {
		requiresRestart = append(requiresRestart, "control.socket")
	}
	if newConfig.Metrics != oldConfig.Metrics {
		requiresRestart = append(requiresRestart, "metrics")
	}
	if newConfig.Ring.Enabled != oldConfig.Ring.Enabled ||
		newConfig.Ring.Server != oldConfig.Ring.Server ||
		newConfig.Ring.Device != oldConfig.Ring.Device ||
		newConfig.Ring.Zone != oldConfig.Ring.Zone {
		requiresRestart = append(requiresRestart, "ring_target")
	}

	slog.Info("configuration reloaded",
		"hot_reloaded", hotReloaded,
		"requires_restart", requiresRestart,
	)

	return nil
}

// TriggerShutdown triggers graceful shutdown from an external caller
// (e.g., the daemon_shutdown command). Safe to call more than once.
func (d *Daemon) TriggerShutdown() {
	select {
	case d.shutdownChan <- struct{}{}:
		// Shutdown signal sent
	default:
		// Channel already has a value, no-op
	}
}

// LoadSource decodes path and swaps it in as the panel source; the
// streamer picks it up at the next tick. Implements control.Runtime.
func (d *Daemon) LoadSource(path string) (string, error) {
	src, err := source.Open(path, d.config.Panel.Width, d.config.Panel.Height)
	if err != nil {
		return "", err
	}

	d.switcher.Swap(src)
	slog.Info("source swapped", "source", src.Name())
	return src.Name(), nil
}

// Status reports live component state. Implements control.Runtime.
func (d *Daemon) Status() map[string]interface{} {
	status := map[string]interface{}{
		"source": d.switcher.Name(),
		"panel":  d.streamer.Stats(),
	}
	if d.sink != nil {
		status["ring"] = d.sink.Stats()
	} else {
		status["ring"] = "disabled"
	}
	return status
}

// initLogging initializes the logging system from config.
func (d *Daemon) initLogging() error {
	if err := logpkg.Init(d.config.Log); err != nil {
		return err
	}

	slog.Debug("logging initialized",
		"level", d.config.Log.Level,
		"format", d.config.Log.Format,
	)

	return nil
}

// startMetrics starts the metrics HTTP server if enabled.
func (d *Daemon) startMetrics() error {
	if !d.config.Metrics.Enabled {
		slog.Info("metrics server disabled")
		return nil
	}

	d.metricsServer = metrics.NewServer(d.config.Metrics.Listen, d.config.Metrics.Path)
	if err := d.metricsServer.Start(d.ctx); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	slog.Info("metrics server started",
		"addr", d.config.Metrics.Listen,
		"path", d.config.Metrics.Path,
	)

	return nil
}

// writePIDFile writes the current process ID to the PID file.
func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}

	pid := os.Getpid()
	data := []byte(strconv.Itoa(pid) + "\n")

	if err := os.WriteFile(d.pidFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write PID file %s: %w", d.pidFile, err)
	}

	slog.Debug("PID file written", "path", d.pidFile, "pid", pid)
	return nil
}

// removePIDFile removes the PID file.
func (d *Daemon) removePIDFile() error {
	if d.pidFile == "" {
		return nil
	}

	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file %s: %w", d.pidFile, err)
	}

	slog.Debug("PID file removed", "path", d.pidFile)
	return nil
}

// parseDuration parses a config duration string, falling back to a default
// on empty, malformed or non-positive values.
func parseDuration(value string, fallback time.Duration, field string) time.Duration {
	if value == "" {
		return fallback
	}

	dur, err := time.ParseDuration(value)
	if err != nil || dur <= 0 {
		slog.Warn("invalid duration, using default",
			"field", field, "value", value, "default", fallback)
		return fallback
	}
	return dur
}
