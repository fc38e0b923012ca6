package source

import (
	"fmt"
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/image/draw"
)

// GIFPlayer plays an animated GIF. All frames are composed onto the canvas
// at load time, honoring per-frame disposal; playback is pure wall-clock
// arithmetic, so Frame never decodes or scales and is safe for concurrent
// callers on both tick paths.
type GIFPlayer struct {
	name   string
	frames []*image.RGBA
	ends   []time.Duration // cumulative display end per frame
	total  time.Duration
	start  time.Time
}

// LoadGIF decodes the GIF at path onto a width×height canvas.
func LoadGIF(path string, width, height int) (*GIFPlayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", path, err)
	}
	return NewGIFPlayer(filepath.Base(path), g, width, height)
}

// NewGIFPlayer composes all frames of g onto the canvas. The animation
// loops forever regardless of the file's loop count; the panel is a live
// display, not a one-shot viewer.
func NewGIFPlayer(name string, g *gif.GIF, width, height int) (*GIFPlayer, error) {
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("source: gif %s has no frames", name)
	}

	// The logical screen holds the running composition; individual frames
	// may only cover part of it.
	logicalW, logicalH := g.Config.Width, g.Config.Height
	if logicalW <= 0 || logicalH <= 0 {
		b := g.Image[0].Bounds()
		logicalW, logicalH = b.Max.X, b.Max.Y
	}
	canvas := image.NewRGBA(image.Rect(0, 0, logicalW, logicalH))

	p := &GIFPlayer{name: name, start: time.Now()}
	for i, frame := range g.Image {
		var restore *image.RGBA
		if g.Disposal[i] == gif.DisposalPrevious {
			restore = cloneRGBA(canvas)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		p.frames = append(p.frames, compose(canvas, width, height))

		// Delays are in centiseconds. Zero-delay frames render at the
		// 100 ms most viewers substitute.
		delay := g.Delay[i]
		if delay <= 0 {
			delay = 10
		}
		p.total += time.Duration(delay) * 10 * time.Millisecond
		p.ends = append(p.ends, p.total)

		switch g.Disposal[i] {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = restore
		}
	}
	return p, nil
}

// Frame returns the frame scheduled for the current wall-clock position
// within the loop.
func (p *GIFPlayer) Frame() *image.RGBA { return p.frameAt(time.Now()) }

// Name returns the display name.
func (p *GIFPlayer) Name() string { return p.name }

// FrameCount returns the number of composed frames.
func (p *GIFPlayer) FrameCount() int { return len(p.frames) }

// Duration returns the length of one full loop.
func (p *GIFPlayer) Duration() time.Duration { return p.total }

func (p *GIFPlayer) frameAt(now time.Time) *image.RGBA {
	if len(p.frames) == 1 || p.total <= 0 {
		return p.frames[0]
	}

	elapsed := now.Sub(p.start) % p.total
	i := sort.Search(len(p.ends), func(i int) bool { return p.ends[i] > elapsed })
	if i >= len(p.frames) {
		i = len(p.frames) - 1
	}
	return p.frames[i]
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
