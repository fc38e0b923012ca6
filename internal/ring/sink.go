package ring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lcdglow/lcdglow/internal/metrics"
)

// State is the sink lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateConnecting    State = "connecting"
	StateEnabled       State = "enabled"
	// StateDisabled is terminal for the process run: every later push is
	// a silent no-op.
	StateDisabled State = "disabled"
)

// Sink config defaults.
const (
	DefaultDeviceName  = "Corsair Commander Core"
	DefaultZoneName    = "Pump"
	DefaultRetryDelay  = 5 * time.Second
	DefaultSettleDelay = 100 * time.Millisecond
)

// connectAttempts is the total number of dials Connect makes before the
// sink gives up for the rest of the process run.
const connectAttempts = 2

// SinkConfig names the LED target and tunes the connect and shutdown
// timing.
type SinkConfig struct {
	// DeviceName selects the controller; matched as a substring so model
	// suffixes in the reported name do not break the lookup.
	DeviceName string
	// ZoneName selects the zone within the device, matched exactly.
	ZoneName string
	// RetryDelay is the wait between the first failed dial and the single
	// retry.
	RetryDelay time.Duration
	// SettleDelay is the pause before the shutdown blank, giving the last
	// color push time to land.
	SettleDelay time.Duration
}

func (c *SinkConfig) applyDefaults() {
	if c.DeviceName == "" {
		c.DeviceName = DefaultDeviceName
	}
	if c.ZoneName == "" {
		c.ZoneName = DefaultZoneName
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
}

// SinkStats is a point-in-time snapshot of the sink counters.
type SinkStats struct {
	State  State  `json:"state"`
	Pushes uint64 `json:"pushes"`
	Misses uint64 `json:"lookup_misses"`
	Skips  uint64 `json:"skipped"`
	Errors uint64 `json:"errors"`
}

// Sink owns the LED backend session and the connect/disable lifecycle.
// Push is safe to call from the mirror loop while Close runs elsewhere.
type Sink struct {
	dial DialFunc
	cfg  SinkConfig

	mu      sync.RWMutex
	state   State
	backend Backend
	devices []Device

	pushes atomic.Uint64
	misses atomic.Uint64
	skips  atomic.Uint64
	errs   atomic.Uint64
}

// NewSink builds an unconnected sink. Call Connect before pushing.
func NewSink(dial DialFunc, cfg SinkConfig) *Sink {
	cfg.applyDefaults()
	s := &Sink{dial: dial, cfg: cfg, state: StateUninitialized}
	metrics.RingState.Set(stateGauge(s.state))
	return s
}

// Connect dials the backend and caches its device list. One failed attempt
// is retried after the configured delay; a second failure disables the
// sink for the rest of the process run and is reported to the caller.
func (s *Sink) Connect(ctx context.Context) error {
	s.setState(StateConnecting)

	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				s.setState(StateDisabled)
				return ctx.Err()
			case <-time.After(s.cfg.RetryDelay):
			}
		}

		backend, devices, err := s.open()
		if err != nil {
			lastErr = err
			slog.Warn("led backend connect failed",
				"attempt", attempt, "attempts", connectAttempts, "error", err)
			continue
		}

		s.mu.Lock()
		s.backend = backend
		s.devices = devices
		s.mu.Unlock()
		s.setState(StateEnabled)
		return nil
	}

	s.setState(StateDisabled)
	return fmt.Errorf("led backend unavailable after %d attempts: %w", connectAttempts, lastErr)
}

// open dials and lists devices; a session that cannot enumerate counts as
// a failed attempt.
func (s *Sink) open() (Backend, []Device, error) {
	backend, err := s.dial()
	if err != nil {
		return nil, nil, err
	}
	devices, err := backend.Devices()
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return backend, devices, nil
}

// Push writes one color per ring LED to the configured zone. Outside the
// enabled state, and on a device or zone lookup miss, the push is a no-op.
func (s *Sink) Push(colors []Color) error {
	s.mu.RLock()
	state, backend, devices := s.state, s.backend, s.devices
	s.mu.RUnlock()

	if state != StateEnabled {
		s.skips.Add(1)
		metrics.RingUpdatesTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil
	}

	dev, zone, ok := findZone(devices, s.cfg.DeviceName, s.cfg.ZoneName)
	if !ok {
		s.misses.Add(1)
		metrics.RingUpdatesTotal.WithLabelValues(metrics.OutcomeMiss).Inc()
		slog.Warn("led target not found", "device", s.cfg.DeviceName, "zone", s.cfg.ZoneName)
		return nil
	}

	if err := backend.SetZone(dev.ID, zone.Index, colors); err != nil {
		s.errs.Add(1)
		metrics.RingUpdatesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("led push: %w", err)
	}

	s.pushes.Add(1)
	metrics.RingUpdatesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return nil
}

// Close blanks the target device and tears the session down. The sink
// waits out the settle delay first so the final color push is visible
// before the blank. LED writes here are best effort.
func (s *Sink) Close() error {
	s.mu.Lock()
	backend := s.backend
	devices := s.devices
	s.backend = nil
	s.mu.Unlock()
	s.setState(StateDisabled)

	if backend == nil {
		return nil
	}

	time.Sleep(s.cfg.SettleDelay)
	if dev, _, ok := findZone(devices, s.cfg.DeviceName, s.cfg.ZoneName); ok {
		black := make([]Color, dev.LEDs)
		if err := backend.SetDevice(dev.ID, black); err != nil {
			slog.Warn("led blank on shutdown failed", "error", err)
		}
	}
	return backend.Close()
}

// State reports the current lifecycle state.
func (s *Sink) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Stats snapshots the push counters.
func (s *Sink) Stats() SinkStats {
	return SinkStats{
		State:  s.State(),
		Pushes: s.pushes.Load(),
		Misses: s.misses.Load(),
		Skips:  s.skips.Load(),
		Errors: s.errs.Load(),
	}
}

func (s *Sink) setState(st State) {
	s.mu.Lock()
	old := s.state
	s.state = st
	s.mu.Unlock()

	metrics.RingState.Set(stateGauge(st))
	if old != st {
		slog.Info("led sink state changed", "from", old, "to", st)
	}
}

func stateGauge(st State) float64 {
	switch st {
	case StateConnecting:
		return metrics.RingStateConnecting
	case StateEnabled:
		return metrics.RingStateEnabled
	case StateDisabled:
		return metrics.RingStateDisabled
	default:
		return metrics.RingStateUninitialized
	}
}

// findZone resolves the push target against the cached device list. The
// device matches on substring, the zone on exact name.
func findZone(devices []Device, deviceName, zoneName string) (Device, ZoneInfo, bool) {
	for _, dev := range devices {
		if !strings.Contains(dev.Name, deviceName) {
			continue
		}
		for _, zone := range dev.Zones {
			if zone.Name == zoneName {
				return dev, zone, true
			}
		}
	}
	return Device{}, ZoneInfo{}, false
}
