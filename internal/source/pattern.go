package source

import (
	"image"
	"math"
	"time"
)

// wheelDegreesPerSecond is the rotation speed of the test pattern.
const wheelDegreesPerSecond = 40

// TestPattern renders a rotating color wheel under a radial vignette. It
// is the source of last resort when no image is configured, and doubles
// as a live check of the ring mirroring: the rim hues march around the
// LED ring as the wheel turns.
type TestPattern struct {
	width, height int

	// Per-pixel wheel index and brightness, precomputed so a frame
	// render is palette lookups only.
	angle []uint16
	shade []uint8
	wheel [360][3]uint8

	start time.Time
	now   func() time.Time
}

// NewTestPattern builds the pattern tables for a width×height canvas.
func NewTestPattern(width, height int) *TestPattern {
	if width <= 0 {
		width = 480
	}
	if height <= 0 {
		height = 480
	}

	p := &TestPattern{
		width:  width,
		height: height,
		angle:  make([]uint16, width*height),
		shade:  make([]uint8, width*height),
		start:  time.Now(),
		now:    time.Now,
	}

	cx, cy := float64(width)/2, float64(height)/2
	maxR := math.Min(cx, cy)
	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy

			deg := math.Atan2(dy, dx) * 180 / math.Pi
			if deg < 0 {
				deg += 360
			}
			p.angle[i] = uint16(deg) % 360

			// Full brightness out to 80% radius, easing down in the
			// corners so the letterbox region reads as background.
			shade := 1.0
			if r := math.Hypot(dx, dy) / maxR; r > 0.8 {
				shade = 1 - 0.75*math.Min((r-0.8)/0.6, 1)
			}
			p.shade[i] = uint8(math.Round(255 * shade))
			i++
		}
	}

	// Three-phase cosine wheel: smooth full-saturation rainbow.
	for d := 0; d < 360; d++ {
		rad := float64(d) * math.Pi / 180
		p.wheel[d] = [3]uint8{
			uint8(math.Round(127.5 * (1 + math.Cos(rad)))),
			uint8(math.Round(127.5 * (1 + math.Cos(rad-2*math.Pi/3)))),
			uint8(math.Round(127.5 * (1 + math.Cos(rad+2*math.Pi/3)))),
		}
	}
	return p
}

// Frame renders the wheel at its current rotation. Each call allocates a
// fresh raster, so concurrent callers never share mutable state.
func (p *TestPattern) Frame() *image.RGBA {
	elapsed := p.now().Sub(p.start)
	offset := int(elapsed.Seconds()*wheelDegreesPerSecond) % 360

	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	pix := img.Pix
	for i, a := range p.angle {
		c := p.wheel[(int(a)+offset)%360]
		s := uint32(p.shade[i])
		o := i * 4
		pix[o] = uint8(uint32(c[0]) * s / 255)
		pix[o+1] = uint8(uint32(c[1]) * s / 255)
		pix[o+2] = uint8(uint32(c[2]) * s / 255)
		pix[o+3] = 0xFF
	}
	return img
}

// Name identifies the built-in pattern.
func (p *TestPattern) Name() string { return "test pattern" }
