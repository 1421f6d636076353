package render

import (
	"errors"
	"fmt"
)

var ErrInvalidVisParams = errors.New("invalid visualization parameters")

// RdYlGn11 is the 11 class red-yellow-green ramp, red first.
var RdYlGn11 = []string{
	"#a50026", "#d73027", "#f46d43", "#fdae61", "#fee08b", "#ffffbf",
	"#d9ef8b", "#a6d96a", "#66bd63", "#1a9850", "#006837",
}

// TemperaturePalette runs from green (cool) to red (hot).
var TemperaturePalette = Reverse(RdYlGn11)

// VisParams describes how band values map to display colors.
type VisParams struct {
	Bands   []string `json:"bands"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Palette []string `json:"palette,omitempty"`
}

// DefaultVisParams shows ST_B10 in Fahrenheit from 70 to 130.
func DefaultVisParams() VisParams {
	return VisParams{
		Bands:   []string{"ST_B10"},
		Min:     70,
		Max:     130,
		Palette: append([]string(nil), TemperaturePalette...),
	}
}

func (v VisParams) Validate() error {
	switch len(v.Bands) {
	case 1:
	case 3:
		if len(v.Palette) > 0 {
			return fmt.Errorf("%w: a palette needs exactly one band, got %d", ErrInvalidVisParams, len(v.Bands))
		}
	default:
		return fmt.Errorf("%w: need 1 or 3 bands, got %d", ErrInvalidVisParams, len(v.Bands))
	}
	for _, b := range v.Bands {
		if b == "" {
			return fmt.Errorf("%w: empty band name", ErrInvalidVisParams)
		}
	}
	if !(v.Max > v.Min) {
		return fmt.Errorf("%w: max %v must exceed min %v", ErrInvalidVisParams, v.Max, v.Min)
	}
	if _, err := ParsePalette(v.Palette); err != nil {
		return err
	}
	return nil
}

// Normalize maps a value onto [0, 1] using min and max, clamping outside values.
func (v VisParams) Normalize(value float64) float64 {
	t := (value - v.Min) / (v.Max - v.Min)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
