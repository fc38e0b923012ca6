package source

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestPatternFrame(t *testing.T) {
	p := NewTestPattern(64, 64)
	p.now = func() time.Time { return p.start }

	frame := p.Frame()
	require.Equal(t, image.Rect(0, 0, 64, 64), frame.Bounds())

	// (52,32) sits on the 0° axis inside the full-brightness radius:
	// pure wheel color, no vignette.
	assert.Equal(t, color.RGBA{R: 255, G: 64, B: 64, A: 255}, frame.RGBAAt(52, 32))
}

func TestTestPatternVignette(t *testing.T) {
	p := NewTestPattern(64, 64)
	p.now = func() time.Time { return p.start }

	frame := p.Frame()
	corner := frame.RGBAAt(0, 0)
	max := corner.R
	if corner.G > max {
		max = corner.G
	}
	if corner.B > max {
		max = corner.B
	}
	assert.Less(t, max, uint8(100), "corners should be dimmed")
	assert.Equal(t, uint8(0xFF), corner.A)
}

func TestTestPatternRotation(t *testing.T) {
	p := NewTestPattern(64, 64)

	p.now = func() time.Time { return p.start }
	at0 := p.Frame()

	p.now = func() time.Time { return p.start.Add(3 * time.Second) }
	at3s := p.Frame()
	assert.NotEqual(t, at0.Pix, at3s.Pix, "wheel should have rotated")

	// 9 s at 40°/s is one full revolution.
	p.now = func() time.Time { return p.start.Add(9 * time.Second) }
	wrapped := p.Frame()
	assert.Equal(t, at0.Pix, wrapped.Pix)
}

func TestTestPatternFramesAreIndependent(t *testing.T) {
	p := NewTestPattern(32, 32)
	p.now = func() time.Time { return p.start }

	a := p.Frame()
	b := p.Frame()
	require.NotSame(t, a, b)

	before := b.RGBAAt(16, 16)
	a.Set(16, 16, color.RGBA{A: 0xFF})
	assert.Equal(t, before, b.RGBAAt(16, 16))
}

func TestTestPatternName(t *testing.T) {
	assert.Equal(t, "test pattern", NewTestPattern(32, 32).Name())
}
