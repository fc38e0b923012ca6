package ring

import (
	"context"
	"image"
	"log/slog"
	"time"
)

// DefaultInterval is the LED refresh period. The ring runs on its own
// clock, independent of the panel frame rate.
const DefaultInterval = 100 * time.Millisecond

// Source yields the frame the ring colors are sampled from.
type Source interface {
	// Frame returns the current frame, or nil when none is available.
	Frame() *image.RGBA
}

// Mirror periodically samples the current frame and pushes the resulting
// colors to the sink.
type Mirror struct {
	src      Source
	sampler  *Sampler
	sink     *Sink
	interval time.Duration
}

// NewMirror wires a source, sampler and sink into one loop.
func NewMirror(src Source, sampler *Sampler, sink *Sink, interval time.Duration) *Mirror {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Mirror{src: src, sampler: sampler, sink: sink, interval: interval}
}

// Run connects the sink and mirrors colors until ctx is done. When the
// sink ends up disabled the mirror stops without error; the panel path is
// unaffected.
func (m *Mirror) Run(ctx context.Context) error {
	if err := m.sink.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("led mirroring disabled", "error", err)
		return nil
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick runs one sample and push round. A missing frame leaves the previous
// colors in place; push failures are logged and the loop keeps going.
func (m *Mirror) tick() {
	frame := m.src.Frame()
	if frame == nil {
		return
	}
	colors := m.sampler.Sample(frame)
	if err := m.sink.Push(colors); err != nil {
		slog.Error("led update failed", "error", err)
	}
}
