package ring

import "math"

// Color is one 8-bit RGB triple bound for an LED.
type Color struct {
	R, G, B uint8
}

// rgbToHSV converts to hue, saturation and value. Hue is in degrees 0..359,
// saturation and value range 0..255. Achromatic colors report hue -1.
func rgbToHSV(c Color) (h int, s, v uint8) {
	r, g, b := float64(c.R), float64(c.G), float64(c.B)
	maxc := math.Max(r, math.Max(g, b))
	minc := math.Min(r, math.Min(g, b))
	delta := maxc - minc

	v = uint8(maxc)
	if delta == 0 {
		return -1, 0, v
	}
	s = uint8(math.Round(255 * delta / maxc))

	var hue float64
	switch maxc {
	case r:
		hue = 60 * (g - b) / delta
	case g:
		hue = 120 + 60*(b-r)/delta
	default:
		hue = 240 + 60*(r-g)/delta
	}
	if hue < 0 {
		hue += 360
	}
	return int(math.Round(hue)) % 360, s, v
}

// hsvToRGB is the inverse of rgbToHSV. Hue -1 renders gray at the given
// value, matching the achromatic convention.
func hsvToRGB(h int, s, v uint8) Color {
	if h < 0 || s == 0 {
		return Color{R: v, G: v, B: v}
	}

	hf := float64(h%360) / 60
	sector := int(hf)
	f := hf - float64(sector)

	vf := float64(v)
	sf := float64(s) / 255
	p := uint8(math.Round(vf * (1 - sf)))
	q := uint8(math.Round(vf * (1 - sf*f)))
	t := uint8(math.Round(vf * (1 - sf*(1-f))))

	switch sector {
	case 0:
		return Color{R: v, G: t, B: p}
	case 1:
		return Color{R: q, G: v, B: p}
	case 2:
		return Color{R: p, G: v, B: t}
	case 3:
		return Color{R: p, G: q, B: v}
	case 4:
		return Color{R: t, G: p, B: v}
	default:
		return Color{R: v, G: p, B: q}
	}
}

// boostSaturation scales the color's saturation by factor, truncating the
// product and clamping it to the 0..255 range. Hue and value are preserved.
func boostSaturation(c Color, factor float64) Color {
	h, s, v := rgbToHSV(c)
	boosted := int(float64(s) * factor)
	if boosted > 255 {
		boosted = 255
	}
	if boosted < 0 {
		boosted = 0
	}
	return hsvToRGB(h, uint8(boosted), v)
}
