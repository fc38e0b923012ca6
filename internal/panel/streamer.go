package panel

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/image/draw"

	"github.com/lcdglow/lcdglow/internal/metrics"
)

// Source supplies the raster to stream. Frame must return a complete
// snapshot safe for concurrent readers, or nil when no frame is available
// yet. The streamer treats the returned image as read-only and holds it no
// longer than one tick.
type Source interface {
	Frame() *image.RGBA
}

// Config holds the streamer settings. Zero fields take defaults.
type Config struct {
	Width       int   // panel raster width, default 480
	Height      int   // panel raster height, default 480
	PacketSize  int   // wire packet size, default 1024
	Opcode      uint8 // default OpcodeImage
	FPS         int   // ticks per second, default 30
	JPEGQuality int   // 1..100, default 95
}

func (c *Config) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 480
	}
	if c.Height <= 0 {
		c.Height = 480
	}
	if c.PacketSize <= 0 {
		c.PacketSize = DefaultPacketSize
	}
	if c.Opcode == 0 {
		c.Opcode = OpcodeImage
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
	if c.JPEGQuality <= 0 {
		c.JPEGQuality = 95
	}
}

// Stats is a point-in-time snapshot of streamer counters.
type Stats struct {
	Frames       uint64 `json:"frames"`
	Packets      uint64 `json:"packets"`
	EncodeErrors uint64 `json:"encode_errors"`
	WriteErrors  uint64 `json:"write_errors"`
}

// Streamer owns the device handle and pushes one framed frame per tick:
// capture, scale to the panel raster, JPEG-encode, split into packets and
// write them in ascending part order. A failed tick is logged and abandoned;
// the next tick starts from a fresh capture. The streamer is the only writer
// on the device.
type Streamer struct {
	dev Device
	src Source
	cfg Config

	frames       atomic.Uint64
	packets      atomic.Uint64
	encodeErrors atomic.Uint64
	writeErrors  atomic.Uint64
}

// NewStreamer creates a streamer over an already-open device.
func NewStreamer(dev Device, src Source, cfg Config) *Streamer {
	cfg.applyDefaults()
	return &Streamer{dev: dev, src: src, cfg: cfg}
}

// Run drives the tick loop until ctx is cancelled. A tick runs to completion
// before the next one fires; overruns delay the next tick instead of
// stacking up.
func (s *Streamer) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("panel streamer running",
		"fps", s.cfg.FPS,
		"size", fmt.Sprintf("%dx%d", s.cfg.Width, s.cfg.Height),
		"packet_size", s.cfg.PacketSize,
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("panel streamer stopping", "frames", s.frames.Load())
			return ctx.Err()
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick pushes one frame. Every failure is per-tick: logged, counted and
// dropped without stopping the loop.
func (s *Streamer) tick() {
	start := time.Now()

	frame := s.src.Frame()
	if frame == nil {
		return
	}

	encoded, err := s.encode(frame)
	if err != nil {
		s.encodeErrors.Add(1)
		metrics.PanelEncodeErrorsTotal.Inc()
		slog.Error("frame encode failed", "error", err)
		return
	}
	if len(encoded) == 0 {
		// An empty message must never reach the framer.
		s.encodeErrors.Add(1)
		metrics.PanelEncodeErrorsTotal.Inc()
		slog.Error("frame encode produced no data")
		return
	}

	packets, err := Frame(encoded, s.cfg.Opcode, s.cfg.PacketSize)
	if err != nil {
		s.encodeErrors.Add(1)
		metrics.PanelEncodeErrorsTotal.Inc()
		slog.Error("frame split failed", "error", err)
		return
	}

	for _, p := range packets {
		if _, err := s.dev.Write(p.Encode()); err != nil {
			s.writeErrors.Add(1)
			metrics.PanelWriteErrorsTotal.Inc()
			slog.Error("device write failed",
				"part", p.PartIndex,
				"parts", len(packets),
				"error", err,
			)
			// Torn message: the panel shows a corrupt frame until the
			// next tick rewrites it in full.
			return
		}
		s.packets.Add(1)
	}

	s.frames.Add(1)
	metrics.PanelFramesTotal.Inc()
	metrics.PanelPacketsTotal.Add(float64(len(packets)))
	metrics.PanelFrameBytes.Observe(float64(len(encoded)))
	metrics.PanelTickSeconds.Observe(time.Since(start).Seconds())
}

// encode scales frame to the panel raster if needed and JPEG-encodes it.
func (s *Streamer) encode(frame *image.RGBA) ([]byte, error) {
	img := image.Image(frame)
	if b := frame.Bounds(); b.Dx() != s.cfg.Width || b.Dy() != s.cfg.Height {
		dst := image.NewRGBA(image.Rect(0, 0, s.cfg.Width, s.cfg.Height))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.cfg.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Stats returns a snapshot of the streamer counters.
func (s *Streamer) Stats() Stats {
	return Stats{
		Frames:       s.frames.Load(),
		Packets:      s.packets.Load(),
		EncodeErrors: s.encodeErrors.Load(),
		WriteErrors:  s.writeErrors.Load(),
	}
}
