// Package ring mirrors the rendered frame onto an LED ring: a fixed set of
// points around a circle is sampled each tick, saturation-boosted, smoothed
// over time and pushed to an LED control backend.
package ring

import (
	"image"
	"math"
	"sync"
)

// LEDCount is the number of ring LEDs, one sample point per LED.
const LEDCount = 24

// Sampler defaults, sized for a 480x480 panel frame.
const (
	DefaultSampleSize       = 479
	DefaultSaturationFactor = 1.25
	DefaultSmoothingFactor  = 0.25
)

// SamplerConfig shapes the sample geometry and the color pipeline. The
// factors are taken as given so that meaningful zero values stay
// expressible; the config layer supplies the usual defaults.
type SamplerConfig struct {
	// Width and Height define the plane the circle is laid out on. Points
	// are clamped to the actual frame bounds at sample time.
	Width  int
	Height int
	// SaturationFactor scales each sample's saturation before smoothing.
	// Zero drains every sample to gray.
	SaturationFactor float64
	// SmoothingFactor is the exponential smoothing weight of the newest
	// sample. Zero keeps the seed forever, one disables smoothing; values
	// outside [0, 1] are clamped.
	SmoothingFactor float64
}

func (c *SamplerConfig) applyDefaults() {
	if c.Width <= 0 {
		c.Width = DefaultSampleSize
	}
	if c.Height <= 0 {
		c.Height = DefaultSampleSize
	}
	if c.SmoothingFactor < 0 {
		c.SmoothingFactor = 0
	}
	if c.SmoothingFactor > 1 {
		c.SmoothingFactor = 1
	}
}

// Sampler turns frames into the 24-color ring vector. It keeps the smoothed
// colors across calls; a fresh sampler starts from black.
type Sampler struct {
	mu     sync.Mutex
	cfg    SamplerConfig
	points [LEDCount]image.Point
	colors [LEDCount]Color
}

// NewSampler precomputes the sample points for the configured plane.
//
// Point i sits at angle 2*pi*(23-i)/24 on a circle of radius half the
// smaller side, centered on the plane. The X coordinate is mirrored across
// the vertical axis; the physical ring is wound opposite to the sample
// order, and the mirror lines the two up.
func NewSampler(cfg SamplerConfig) *Sampler {
	cfg.applyDefaults()
	s := &Sampler{cfg: cfg}

	w, h := cfg.Width, cfg.Height
	radius := float64(min(w, h) / 2)
	for i := range s.points {
		angle := 2 * math.Pi * float64(LEDCount-1-i) / LEDCount
		x := math.Round(float64(w)/2 + radius*math.Cos(angle))
		y := math.Round(float64(h)/2 + radius*math.Sin(angle))
		s.points[i] = image.Point{X: w - int(x), Y: int(y)}
	}
	return s
}

// Sample reads the 24 points from frame, boosts saturation, folds the
// result into the smoothed state and returns the updated vector. The
// returned slice aliases internal state and is only valid until the next
// call. frame must not be nil.
func (s *Sampler) Sample(frame *image.RGBA) []Color {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := frame.Bounds()
	alpha := s.cfg.SmoothingFactor

	for i, pt := range s.points {
		x := clamp(pt.X, b.Min.X, b.Max.X-1)
		y := clamp(pt.Y, b.Min.Y, b.Max.Y-1)
		px := frame.RGBAAt(x, y)

		sampled := boostSaturation(Color{R: px.R, G: px.G, B: px.B}, s.cfg.SaturationFactor)
		prev := s.colors[i]
		s.colors[i] = Color{
			R: blend(prev.R, sampled.R, alpha),
			G: blend(prev.G, sampled.G, alpha),
			B: blend(prev.B, sampled.B, alpha),
		}
	}
	return s.colors[:]
}

// Colors returns a copy of the current smoothed vector.
func (s *Sampler) Colors() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Color, LEDCount)
	copy(out, s.colors[:])
	return out
}

// SetFactors replaces the saturation and smoothing factors without
// dropping the smoothed state. A live reload may call this while the
// mirror keeps ticking.
func (s *Sampler) SetFactors(saturation, smoothing float64) {
	if smoothing < 0 {
		smoothing = 0
	}
	if smoothing > 1 {
		smoothing = 1
	}

	s.mu.Lock()
	s.cfg.SaturationFactor = saturation
	s.cfg.SmoothingFactor = smoothing
	s.mu.Unlock()
}

// blend folds one sample into the running channel value:
// new = prev*(1-alpha) + sample*alpha, rounded to nearest.
func blend(prev, sample uint8, alpha float64) uint8 {
	return uint8(math.Round(float64(prev)*(1-alpha) + float64(sample)*alpha))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
