// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PanelFramesTotal counts frames fully written to the panel.
	PanelFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lcdglow_panel_frames_total",
			Help: "Total number of frames fully written to the LCD panel",
		},
	)

	// PanelPacketsTotal counts protocol packets written to the panel.
	PanelPacketsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lcdglow_panel_packets_total",
			Help: "Total number of protocol packets written to the LCD panel",
		},
	)

	// PanelEncodeErrorsTotal counts frames dropped because JPEG encoding failed.
	PanelEncodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lcdglow_panel_encode_errors_total",
			Help: "Total number of frames dropped due to encode failures",
		},
	)

	// PanelWriteErrorsTotal counts ticks abandoned because a device write failed.
	PanelWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lcdglow_panel_write_errors_total",
			Help: "Total number of ticks abandoned due to device write failures",
		},
	)

	// PanelFrameBytes tracks the encoded size distribution of written frames.
	PanelFrameBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lcdglow_panel_frame_bytes",
			Help:    "Encoded JPEG size of frames written to the panel",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 10), // 1KiB to ~1MiB
		},
	)

	// PanelTickSeconds measures the capture-to-written latency of one panel tick.
	PanelTickSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lcdglow_panel_tick_seconds",
			Help:    "Duration of one panel tick (capture, encode, frame, write)",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~2s
		},
	)

	// RingUpdatesTotal counts LED ring pushes by outcome.
	RingUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lcdglow_ring_updates_total",
			Help: "Total number of LED ring update attempts",
		},
		[]string{"outcome"},
	)

	// RingState tracks the LED sink state (0=uninitialized, 1=connecting, 2=enabled, 3=disabled).
	RingState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lcdglow_ring_state",
			Help: "Current LED sink state (0=uninitialized, 1=connecting, 2=enabled, 3=disabled)",
		},
	)
)

// Ring update outcomes for the RingUpdatesTotal "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeMiss    = "lookup_miss"
	OutcomeError   = "error"
	OutcomeSkipped = "skipped"
)

// RingStateValue maps LED sink states to RingState gauge values.
const (
	RingStateUninitialized = 0
	RingStateConnecting    = 1
	RingStateEnabled       = 2
	RingStateDisabled      = 3
)
