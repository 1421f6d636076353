package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ParseColor reads "#rrggbb" or "rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q is not rrggbb", ErrInvalidVisParams, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q: %v", ErrInvalidVisParams, s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

func ParsePalette(colors []string) ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(colors))
	for _, c := range colors {
		rgba, err := ParseColor(c)
		if err != nil {
			return nil, err
		}
		out = append(out, rgba)
	}
	return out, nil
}

// Reverse returns the palette in the opposite order.
func Reverse(colors []string) []string {
	out := make([]string, len(colors))
	for i, c := range colors {
		out[len(colors)-1-i] = c
	}
	return out
}

// InterpolateUint8 moves a fraction t of the way from a to b.
func InterpolateUint8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
}

// InterpolateColor returns an opaque color between a and b.
func InterpolateColor(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: InterpolateUint8(a.R, b.R, t),
		G: InterpolateUint8(a.G, b.G, t),
		B: InterpolateUint8(a.B, b.B, t),
		A: 255,
	}
}

// ColorAt picks the color for a normalized position t. Values at or below 0
// take the first color, at or above 1 the last, anything between is
// interpolated between the two nearest palette entries.
func ColorAt(palette []color.RGBA, t float64) color.RGBA {
	if t <= 0 || len(palette) == 1 {
		return palette[0]
	}
	last := len(palette) - 1
	if t >= 1 {
		return palette[last]
	}
	pos := t * float64(last)
	i := int(pos)
	return InterpolateColor(palette[i], palette[i+1], pos-float64(i))
}
