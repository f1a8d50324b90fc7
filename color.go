package binui

import (
	"fmt"
	"image/color"
	"math"
)

// Color is a linear-light RGBA color. Each channel is in the range [0, 1].
//
// Styles are usually built from sRGB hex strings via [SRGBHex]; the
// constructor gamma-expands each channel so that all blending and
// compositing downstream happens in linear light.
type Color struct {
	R, G, B, A float64
}

// RGB creates an opaque linear color from RGB components.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// SRGBHex parses a six- or eight-digit sRGB hex string ("ff8040" or
// "ff8040cc", with or without a leading '#') and gamma-expands the color
// channels to linear light. Alpha, when present, is linear already and
// defaults to 1.
func SRGBHex(hex string) (Color, error) {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}
	var r, g, b uint32
	a := uint32(255)
	switch len(hex) {
	case 6:
		if !parseHexByte(hex[0:2], &r) || !parseHexByte(hex[2:4], &g) || !parseHexByte(hex[4:6], &b) {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
		}
	case 8:
		if !parseHexByte(hex[0:2], &r) || !parseHexByte(hex[2:4], &g) ||
			!parseHexByte(hex[4:6], &b) || !parseHexByte(hex[6:8], &a) {
			return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
		}
	default:
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return Color{
		R: srgbToLinear(float64(r) / 255),
		G: srgbToLinear(float64(g) / 255),
		B: srgbToLinear(float64(b) / 255),
		A: float64(a) / 255,
	}, nil
}

// MustSRGBHex is like [SRGBHex] but panics on a malformed string.
// Intended for compile-time constant colors.
func MustSRGBHex(hex string) Color {
	c, err := SRGBHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex serializes the color back to a six-digit sRGB hex string
// (eight digits when alpha is not 1). SRGBHex followed by Hex returns
// the original digits.
func (c Color) Hex() string {
	r := uint8(math.Round(linearToSRGB(c.R) * 255))
	g := uint8(math.Round(linearToSRGB(c.G) * 255))
	b := uint8(math.Round(linearToSRGB(c.B) * 255))
	if c.A >= 1 {
		return fmt.Sprintf("%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("%02x%02x%02x%02x", r, g, b, uint8(math.Round(c.A*255)))
}

// WithAlpha returns the color with its alpha channel replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// IsTransparent reports whether the color would contribute nothing to a frame.
func (c Color) IsTransparent() bool {
	return c.A <= 0
}

// Premultiply returns the color with RGB channels multiplied by alpha.
func (c Color) Premultiply() Color {
	return Color{R: c.R * c.A, G: c.G * c.A, B: c.B * c.A, A: c.A}
}

// Color converts to the standard color.Color interface (sRGB encoded).
func (c Color) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(linearToSRGB(c.R) * 255)),
		G: uint8(clamp255(linearToSRGB(c.G) * 255)),
		B: uint8(clamp255(linearToSRGB(c.B) * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// srgbToLinear applies the sRGB electro-optical transfer function.
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// linearToSRGB applies the inverse sRGB transfer function.
func linearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

func parseHexByte(s string, out *uint32) bool {
	var v uint32
	for i := 0; i < len(s); i++ {
		d := s[i]
		switch {
		case d >= '0' && d <= '9':
			v = v<<4 | uint32(d-'0')
		case d >= 'a' && d <= 'f':
			v = v<<4 | uint32(d-'a'+10)
		case d >= 'A' && d <= 'F':
			v = v<<4 | uint32(d-'A'+10)
		default:
			return false
		}
	}
	*out = v
	return true
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
