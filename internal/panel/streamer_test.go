package panel

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sync"
	"testing"
	"time"
)

// fakeDevice records every write. Setting failNext makes the next write
// return an error once.
type fakeDevice struct {
	mu       sync.Mutex
	writes   [][]byte
	failNext bool
	closed   bool
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failNext {
		d.failNext = false
		return 0, errors.New("usb: pipe stalled")
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	d.writes = append(d.writes, buf)
	return len(p), nil
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDevice) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

// solidSource returns the same uniform-color frame every tick.
type solidSource struct {
	img *image.RGBA
}

func newSolidSource(w, h int, c color.RGBA) *solidSource {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return &solidSource{img: img}
}

func (s *solidSource) Frame() *image.RGBA { return s.img }

// emptySource models a capture collaborator with no frame ready yet.
type emptySource struct{}

func (emptySource) Frame() *image.RGBA { return nil }

// reassemble rebuilds the logical message from recorded packet writes.
func reassemble(t *testing.T, writes [][]byte) []byte {
	t.Helper()

	var msg []byte
	for i, w := range writes {
		pp := parsePacket(t, w)
		if int(pp.partIndex) != i {
			t.Fatalf("write %d: partIndex = %d", i, pp.partIndex)
		}
		if wantFinal := i == len(writes)-1; pp.final != wantFinal {
			t.Fatalf("write %d: final = %v, want %v", i, pp.final, wantFinal)
		}
		msg = append(msg, pp.payload[:pp.payloadLen]...)
	}
	return msg
}

func TestStreamer_TickWritesOneFramedMessage(t *testing.T) {
	dev := &fakeDevice{}
	src := newSolidSource(480, 480, color.RGBA{R: 200, G: 40, B: 40, A: 255})
	s := NewStreamer(dev, src, Config{})

	s.tick()

	if dev.writeCount() == 0 {
		t.Fatal("no packets written")
	}
	for i, w := range dev.writes {
		if len(w) != DefaultPacketSize {
			t.Errorf("write %d: %d bytes, want %d", i, len(w), DefaultPacketSize)
		}
	}

	msg := reassemble(t, dev.writes)
	img, err := jpeg.Decode(bytes.NewReader(msg))
	if err != nil {
		t.Fatalf("reassembled message is not a valid JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 480 {
		t.Errorf("decoded frame is %dx%d, want 480x480", b.Dx(), b.Dy())
	}

	stats := s.Stats()
	if stats.Frames != 1 {
		t.Errorf("Frames = %d, want 1", stats.Frames)
	}
	if stats.Packets != uint64(dev.writeCount()) {
		t.Errorf("Packets = %d, want %d", stats.Packets, dev.writeCount())
	}
}

func TestStreamer_ScalesMismatchedSource(t *testing.T) {
	dev := &fakeDevice{}
	src := newSolidSource(100, 64, color.RGBA{R: 10, G: 180, B: 30, A: 255})
	s := NewStreamer(dev, src, Config{})

	s.tick()

	msg := reassemble(t, dev.writes)
	img, err := jpeg.Decode(bytes.NewReader(msg))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 480 {
		t.Errorf("decoded frame is %dx%d, want 480x480 after scaling", b.Dx(), b.Dy())
	}
}

func TestStreamer_WriteErrorAbandonsTick(t *testing.T) {
	dev := &fakeDevice{failNext: true}
	src := newSolidSource(480, 480, color.RGBA{R: 250, G: 250, B: 0, A: 255})
	s := NewStreamer(dev, src, Config{})

	s.tick()

	if got := dev.writeCount(); got != 0 {
		t.Errorf("%d packets written after first-write failure, want 0", got)
	}
	stats := s.Stats()
	if stats.WriteErrors != 1 {
		t.Errorf("WriteErrors = %d, want 1", stats.WriteErrors)
	}
	if stats.Frames != 0 {
		t.Errorf("Frames = %d after abandoned tick, want 0", stats.Frames)
	}

	// Next tick retries from a fresh capture and completes.
	s.tick()

	msg := reassemble(t, dev.writes)
	if _, err := jpeg.Decode(bytes.NewReader(msg)); err != nil {
		t.Fatalf("retry tick produced invalid message: %v", err)
	}
	if got := s.Stats().Frames; got != 1 {
		t.Errorf("Frames = %d after retry tick, want 1", got)
	}
}

func TestStreamer_NoFrameNoWrites(t *testing.T) {
	dev := &fakeDevice{}
	s := NewStreamer(dev, emptySource{}, Config{})

	s.tick()

	if got := dev.writeCount(); got != 0 {
		t.Errorf("%d packets written with no frame available, want 0", got)
	}
}

func TestStreamer_RunStopsOnCancel(t *testing.T) {
	dev := &fakeDevice{}
	src := newSolidSource(480, 480, color.RGBA{A: 255})
	s := NewStreamer(dev, src, Config{FPS: 200})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Let a few ticks through, then stop.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if s.Stats().Frames == 0 {
		t.Error("no frames written before cancel")
	}
}

func TestStreamer_Defaults(t *testing.T) {
	s := NewStreamer(&fakeDevice{}, emptySource{}, Config{})

	if s.cfg.Width != 480 || s.cfg.Height != 480 {
		t.Errorf("default raster = %dx%d, want 480x480", s.cfg.Width, s.cfg.Height)
	}
	if s.cfg.PacketSize != 1024 {
		t.Errorf("default packet size = %d, want 1024", s.cfg.PacketSize)
	}
	if s.cfg.FPS != 30 {
		t.Errorf("default fps = %d, want 30", s.cfg.FPS)
	}
	if s.cfg.Opcode != OpcodeImage {
		t.Errorf("default opcode = %#x, want %#x", s.cfg.Opcode, OpcodeImage)
	}
	if s.cfg.JPEGQuality != 95 {
		t.Errorf("default jpeg quality = %d, want 95", s.cfg.JPEGQuality)
	}
}
