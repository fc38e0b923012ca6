package ring

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformFrame(w, h int, c color.RGBA) *image.RGBA {
	f := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(f, f.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return f
}

func TestSampleGeometryLandmarks(t *testing.T) {
	// On the default 479x479 plane the cardinal points land on exact
	// integers. The X mirror puts the angle-zero point (index 23) on the
	// LEFT edge.
	frame := uniformFrame(480, 480, color.RGBA{A: 255})
	frame.SetRGBA(0, 240, color.RGBA{R: 255, A: 255})   // index 23
	frame.SetRGBA(478, 240, color.RGBA{G: 255, A: 255}) // index 11, mirrored right
	frame.SetRGBA(239, 479, color.RGBA{B: 255, A: 255}) // index 17, bottom

	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 1})
	colors := s.Sample(frame)

	assert.Equal(t, Color{R: 255}, colors[23], "angle 0 must mirror to the left edge")
	assert.Equal(t, Color{G: 255}, colors[11])
	assert.Equal(t, Color{B: 255}, colors[17])
	for i, c := range colors {
		if i == 23 || i == 11 || i == 17 {
			continue
		}
		assert.Equal(t, Color{}, c, "index %d should sample background", i)
	}
}

func TestSampleClampsToFrameBounds(t *testing.T) {
	// A frame smaller than the sample plane: every point clamps inside
	// and reads the uniform fill instead of falling off the edge.
	frame := uniformFrame(100, 64, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 1})
	for _, c := range s.Sample(frame) {
		assert.Equal(t, Color{255, 255, 255}, c)
	}
}

func TestSampleUniformFrameYieldsIdenticalColors(t *testing.T) {
	frame := uniformFrame(480, 480, color.RGBA{R: 30, G: 80, B: 200, A: 255})

	s := NewSampler(SamplerConfig{SaturationFactor: 1.25, SmoothingFactor: 1})
	colors := s.Sample(frame)

	require.Len(t, colors, LEDCount)
	first := colors[0]
	for i, c := range colors {
		assert.Equal(t, first, c, "index %d diverged", i)
	}
	assert.Equal(t, boostSaturation(Color{30, 80, 200}, 1.25), first)
}

func TestSampleSmoothingConvergesFromBlackSeed(t *testing.T) {
	// alpha 0.25 against a white frame: 0 -> 64 -> 112 per channel.
	frame := uniformFrame(480, 480, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	s := NewSampler(SamplerConfig{SaturationFactor: 1.25, SmoothingFactor: 0.25})

	colors := s.Sample(frame)
	assert.Equal(t, Color{64, 64, 64}, colors[0], "first tick blends against the black seed")

	colors = s.Sample(frame)
	assert.Equal(t, Color{112, 112, 112}, colors[0], "state must persist across ticks")
}

func TestSampleAlphaOneHasNoMemory(t *testing.T) {
	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 1})

	colors := s.Sample(uniformFrame(480, 480, color.RGBA{R: 255, A: 255}))
	assert.Equal(t, Color{R: 255}, colors[0])

	colors = s.Sample(uniformFrame(480, 480, color.RGBA{B: 255, A: 255}))
	assert.Equal(t, Color{B: 255}, colors[0], "previous color must not bleed through")
}

func TestSampleAlphaZeroStaysFrozen(t *testing.T) {
	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 0})

	for i := 0; i < 3; i++ {
		for _, c := range s.Sample(uniformFrame(480, 480, color.RGBA{R: 255, A: 255})) {
			assert.Equal(t, Color{}, c)
		}
	}
}

func TestSampleSmoothingClampsFactor(t *testing.T) {
	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 4})
	colors := s.Sample(uniformFrame(480, 480, color.RGBA{R: 255, A: 255}))
	assert.Equal(t, Color{R: 255}, colors[0], "factor above one behaves like one")
}

func TestColorsReturnsDetachedCopy(t *testing.T) {
	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 1})
	s.Sample(uniformFrame(480, 480, color.RGBA{R: 255, A: 255}))

	snap := s.Colors()
	s.Sample(uniformFrame(480, 480, color.RGBA{B: 255, A: 255}))

	assert.Equal(t, Color{R: 255}, snap[0], "snapshot must not track later samples")
}

func TestSetFactorsKeepsSmoothedState(t *testing.T) {
	white := uniformFrame(480, 480, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 0.25})

	colors := s.Sample(white)
	require.Equal(t, Color{64, 64, 64}, colors[0])

	// Reload to alpha 1: the next sample replaces outright, but the
	// 64-level state from before survives the switch.
	s.SetFactors(1, 1)
	assert.Equal(t, Color{64, 64, 64}, s.Colors()[0])

	colors = s.Sample(white)
	assert.Equal(t, Color{255, 255, 255}, colors[0])
}

func TestSetFactorsClampsSmoothing(t *testing.T) {
	s := NewSampler(SamplerConfig{SaturationFactor: 1, SmoothingFactor: 1})
	s.SetFactors(1, 7)

	colors := s.Sample(uniformFrame(480, 480, color.RGBA{R: 255, A: 255}))
	assert.Equal(t, Color{R: 255}, colors[0], "factor above one behaves like one")
}
