package imagery

import (
	"fmt"
	"math"

	"lst-tools/geometry"
)

const metersPerDegree = 111320.0

// MetersToDegrees converts a ground distance to lng/lat pixel sizes at a given
// latitude.
func MetersToDegrees(meters, lat float64) (float64, float64) {
	yres := meters / metersPerDegree
	xres := yres / math.Cos(lat*math.Pi/180)
	return xres, yres
}

// Crop returns the sub-grid whose pixel centers fall inside b.
func Crop(img *Image, b geometry.BBox) (*Image, error) {
	col0, col1 := img.Width, -1
	row0, row1 := img.Height, -1
	for row := 0; row < img.Height; row++ {
		for col := 0; col < img.Width; col++ {
			lng, lat := img.Transform.PixelCenter(col, row)
			if !b.Contains(lng, lat) {
				continue
			}
			col0 = minInt(col0, col)
			col1 = maxInt(col1, col)
			row0 = minInt(row0, row)
			row1 = maxInt(row1, row)
		}
	}
	if col1 < 0 {
		return nil, fmt.Errorf("%w: %v does not cover any pixel of %s", geometry.ErrInvalidGeometry, b, img.ID)
	}

	width := col1 - col0 + 1
	height := row1 - row0 + 1
	gt := img.Transform
	gt[0] += float64(col0) * gt[1]
	gt[3] += float64(row0) * gt[5]

	out := NewImage(img.ID, img.Time, gt, width, height)
	for name, band := range img.Bands {
		sub := NewBand(width, height)
		for row := 0; row < height; row++ {
			src := (row+row0)*img.Width + col0
			copy(sub.Data[row*width:(row+1)*width], band.Data[src:src+width])
		}
		out.Bands[name] = sub
	}
	return out, nil
}

// Resample maps img onto a north-up grid with the given pixel size covering the
// same footprint, using nearest neighbour sampling.
func Resample(img *Image, xres, yres float64) (*Image, error) {
	if !(xres > 0) || !(yres > 0) {
		return nil, fmt.Errorf("resolution %v x %v is not positive", xres, yres)
	}
	fp := img.Footprint()
	width := int(math.Max(1, math.Round((fp.East-fp.West)/xres)))
	height := int(math.Max(1, math.Round((fp.North-fp.South)/yres)))
	gt := GeoTransform{fp.West, xres, 0, fp.North, 0, -yres}

	return resampleOnto(img, gt, width, height), nil
}

// resampleOnto samples img at the pixel centers of the target grid. Target
// pixels outside img are no-data.
func resampleOnto(img *Image, gt GeoTransform, width, height int) *Image {
	out := NewImage(img.ID, img.Time, gt, width, height)
	for name, band := range img.Bands {
		dst := NewBand(width, height)
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				lng, lat := gt.PixelCenter(col, row)
				sc, sr := img.Transform.Pixel(lng, lat)
				if sc < 0 || sr < 0 || sc >= img.Width || sr >= img.Height {
					continue
				}
				dst.Data[row*width+col] = band.At(sc, sr)
			}
		}
		out.Bands[name] = dst
	}
	return out
}

// mosaicGrid is the north-up grid covering the union of the members'
// footprints at the finest member resolution.
func mosaicGrid(c Collection) (GeoTransform, int, int) {
	fp := c[0].Footprint()
	xres, yres := math.Abs(c[0].Transform.XRes()), math.Abs(c[0].Transform.YRes())
	for _, img := range c[1:] {
		b := img.Footprint()
		fp.West = math.Min(fp.West, b.West)
		fp.South = math.Min(fp.South, b.South)
		fp.East = math.Max(fp.East, b.East)
		fp.North = math.Max(fp.North, b.North)
		xres = math.Min(xres, math.Abs(img.Transform.XRes()))
		yres = math.Min(yres, math.Abs(img.Transform.YRes()))
	}
	width := int(math.Max(1, math.Round((fp.East-fp.West)/xres)))
	height := int(math.Max(1, math.Round((fp.North-fp.South)/yres)))
	return GeoTransform{fp.West, xres, 0, fp.North, 0, -yres}, width, height
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
