package render

import (
	"fmt"
	"image/color"
	"math"

	"lst-tools/imagery"
)

// Band names of a visualized image.
const (
	BandRed   = "vis-red"
	BandGreen = "vis-green"
	BandBlue  = "vis-blue"
)

// VisBands lists the visualization bands in RGB order.
var VisBands = []string{BandRed, BandGreen, BandBlue}

// Visualize renders img into an 8-bit RGB image (values 0-255 held as float64)
// whose no-data pixels stay no-data.
func Visualize(img *imagery.Image, vis VisParams) (*imagery.Image, error) {
	if err := vis.Validate(); err != nil {
		return nil, err
	}
	inputs := make([]*imagery.Band, len(vis.Bands))
	for i, name := range vis.Bands {
		b, ok := img.Bands[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s not in image %s", imagery.ErrInvalidBand, name, img.ID)
		}
		inputs[i] = b
	}
	palette, err := ParsePalette(vis.Palette)
	if err != nil {
		return nil, err
	}

	red := imagery.NewBand(img.Width, img.Height)
	green := imagery.NewBand(img.Width, img.Height)
	blue := imagery.NewBand(img.Width, img.Height)
	for pix := range red.Data {
		c, ok := pixelColor(inputs, pix, vis, palette)
		if !ok {
			continue
		}
		red.Data[pix] = float64(c.R)
		green.Data[pix] = float64(c.G)
		blue.Data[pix] = float64(c.B)
	}

	out := imagery.NewImage(img.ID, img.Time, img.Transform, img.Width, img.Height)
	out.Bands[BandRed] = red
	out.Bands[BandGreen] = green
	out.Bands[BandBlue] = blue
	return out, nil
}

func pixelColor(inputs []*imagery.Band, pix int, vis VisParams, palette []color.RGBA) (color.RGBA, bool) {
	if len(inputs) == 1 {
		v := inputs[0].Data[pix]
		if imagery.IsNoData(v) {
			return color.RGBA{}, false
		}
		t := vis.Normalize(v)
		if len(palette) > 0 {
			return ColorAt(palette, t), true
		}
		g := stretch(t)
		return color.RGBA{R: g, G: g, B: g, A: 255}, true
	}

	var rgb [3]uint8
	for i, b := range inputs {
		v := b.Data[pix]
		if imagery.IsNoData(v) {
			return color.RGBA{}, false
		}
		rgb[i] = stretch(vis.Normalize(v))
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, true
}

func stretch(t float64) uint8 {
	return uint8(math.Round(t * 255))
}

// IsVisualized reports whether img carries the bands produced by Visualize.
func IsVisualized(img *imagery.Image) bool {
	for _, name := range VisBands {
		if _, ok := img.Bands[name]; !ok {
			return false
		}
	}
	return true
}

// ColorOf reads the visualized color of a pixel. No-data pixels are transparent.
func ColorOf(img *imagery.Image, col, row int) color.RGBA {
	r := img.Bands[BandRed].At(col, row)
	g := img.Bands[BandGreen].At(col, row)
	b := img.Bands[BandBlue].At(col, row)
	if imagery.IsNoData(r) || imagery.IsNoData(g) || imagery.IsNoData(b) {
		return color.RGBA{}
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}
