package imagery

import (
	"fmt"
	"math"
	"sort"
	"time"

	"lst-tools/geometry"
)

// GeoTransform follows the GDAL layout: origin lng, x resolution, row rotation,
// origin lat, column rotation, y resolution (negative for north-up rasters).
type GeoTransform [6]float64

func (gt GeoTransform) XRes() float64 { return gt[1] }
func (gt GeoTransform) YRes() float64 { return gt[5] }

// PixelCenter returns the lng/lat of the center of a pixel.
func (gt GeoTransform) PixelCenter(col, row int) (float64, float64) {
	lng := gt[0] + (float64(col)+0.5)*gt[1]
	lat := gt[3] + (float64(row)+0.5)*gt[5]
	return lng, lat
}

// Pixel returns the column and row containing lng/lat. The result may be
// outside the raster.
func (gt GeoTransform) Pixel(lng, lat float64) (int, int) {
	col := (lng - gt[0]) / gt[1]
	row := (lat - gt[3]) / gt[5]
	return int(math.Floor(col)), int(math.Floor(row))
}

// Image is a set of named bands sharing one grid. Images are treated as
// immutable: operations return new images and may share untouched bands.
type Image struct {
	ID        string
	Time      time.Time
	Transform GeoTransform
	Width     int
	Height    int
	Bands     map[string]*Band
}

func NewImage(id string, acquired time.Time, gt GeoTransform, width, height int) *Image {
	return &Image{
		ID:        id,
		Time:      acquired,
		Transform: gt,
		Width:     width,
		Height:    height,
		Bands:     map[string]*Band{},
	}
}

// BandNames returns the band names in sorted order.
func (img *Image) BandNames() []string {
	names := make([]string, 0, len(img.Bands))
	for name := range img.Bands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (img *Image) Band(name string) (*Band, bool) {
	b, ok := img.Bands[name]
	return b, ok
}

// WithBands returns a copy of img where the given bands are added, replacing
// bands of the same name. Other bands are passed through.
func (img *Image) WithBands(bands map[string]*Band) (*Image, error) {
	out := img.shallowCopy()
	for name, b := range bands {
		if b.Width != img.Width || b.Height != img.Height {
			return nil, fmt.Errorf("band %s is %dx%d, image %s is %dx%d",
				name, b.Width, b.Height, img.ID, img.Width, img.Height)
		}
		out.Bands[name] = b
	}
	return out, nil
}

// Footprint is the extent of the grid.
func (img *Image) Footprint() geometry.BBox {
	x0 := img.Transform[0]
	x1 := x0 + float64(img.Width)*img.Transform[1]
	y0 := img.Transform[3]
	y1 := y0 + float64(img.Height)*img.Transform[5]
	b := geometry.BBox{West: x0, South: y0, East: x1, North: y1}
	if b.West > b.East {
		b.West, b.East = b.East, b.West
	}
	if b.South > b.North {
		b.South, b.North = b.North, b.South
	}
	return b
}

func (img *Image) SameGrid(o *Image) bool {
	return img.Width == o.Width && img.Height == o.Height && img.Transform == o.Transform
}

func (img *Image) shallowCopy() *Image {
	out := *img
	out.Bands = make(map[string]*Band, len(img.Bands))
	for name, b := range img.Bands {
		out.Bands[name] = b
	}
	return &out
}
