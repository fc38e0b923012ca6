// Package source implements the capture collaborators that supply frames.
//
// A Source produces the raster both the panel transport and the LED ring
// sample from. Every implementation returns complete, immutable snapshots
// that are safe for concurrent readers: the two consumers tick on
// independent timers and may call Frame at any time relative to each other.
package source

import (
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for LoadStill
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Source supplies the raster to display and mirror.
type Source interface {
	// Frame returns the current frame, or nil when none is available.
	// The returned image is an immutable snapshot; callers must not
	// mutate it and should not hold it past their tick.
	Frame() *image.RGBA

	// Name describes the source for status reporting.
	Name() string
}

// Open loads the file at path as a source rendering onto a width×height
// canvas. Animated GIFs play back on wall-clock time; any other supported
// format displays as a still.
func Open(path string, width, height int) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		return LoadGIF(path, width, height)
	}
	return LoadStill(path, width, height)
}

// Switcher is a Source that delegates to a swappable inner source. The
// daemon owns one and the control plane replaces the inner source at
// runtime; consumers observe the swap on their next tick.
type Switcher struct {
	current atomic.Pointer[sourceBox]
}

// sourceBox wraps the interface value for atomic.Pointer.
type sourceBox struct {
	src Source
}

// NewSwitcher creates a switcher starting at src.
func NewSwitcher(src Source) *Switcher {
	s := &Switcher{}
	s.current.Store(&sourceBox{src: src})
	return s
}

// Frame returns the current inner source's frame.
func (s *Switcher) Frame() *image.RGBA {
	return s.current.Load().src.Frame()
}

// Name returns the current inner source's name.
func (s *Switcher) Name() string {
	return s.current.Load().src.Name()
}

// Swap replaces the inner source. In-flight ticks finish against the old
// source; subsequent ticks read the new one.
func (s *Switcher) Swap(src Source) {
	s.current.Store(&sourceBox{src: src})
}

// compose letterboxes img onto a width×height canvas: scaled to fit with
// the aspect ratio preserved, centered on black.
func compose(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return dst
	}

	scale := math.Min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	x0 := (width - w) / 2
	y0 := (height - h) / 2

	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), img, b, draw.Src, nil)
	return dst
}

// decodeImage opens and decodes one image file.
func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", path, err)
	}
	return img, nil
}
