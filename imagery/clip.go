package imagery

import (
	"lst-tools/geometry"
)

// Clip masks every pixel whose center lies outside g. Pixels inside keep their
// values and the grid is unchanged.
func Clip(img *Image, g geometry.Geometry) (*Image, error) {
	if err := geometry.RequireArea(g); err != nil {
		return nil, err
	}

	inside := make([]bool, img.Width*img.Height)
	bound := g.Bound()
	for row := 0; row < img.Height; row++ {
		for col := 0; col < img.Width; col++ {
			lng, lat := img.Transform.PixelCenter(col, row)
			if bound.Contains(lng, lat) && g.Contains(lng, lat) {
				inside[row*img.Width+col] = true
			}
		}
	}

	out := img.shallowCopy()
	for name, b := range img.Bands {
		clipped := NewBand(b.Width, b.Height)
		for i, keep := range inside {
			if keep {
				clipped.Data[i] = b.Data[i]
			}
		}
		out.Bands[name] = clipped
	}
	return out, nil
}
