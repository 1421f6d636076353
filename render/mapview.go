package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"lst-tools/geometry"
	"lst-tools/imagery"
)

const (
	// Web mercator meters per pixel at zoom 0 for 256px tiles.
	mercatorResolution = 2 * math.Pi * orb.EarthRadius / 256
	maxZoom            = 24
)

// MapView is a web-mercator viewport centered on a point.
type MapView struct {
	Center geometry.Point
	Zoom   int
}

// DefaultMapView centers on Northampton, MA at street level.
func DefaultMapView() MapView {
	return MapView{Center: geometry.Point{Lng: -72.6480632, Lat: 42.3207333}, Zoom: 13}
}

func (m MapView) Validate() error {
	if err := m.Center.Validate(); err != nil {
		return err
	}
	if m.Zoom < 0 || m.Zoom > maxZoom {
		return fmt.Errorf("zoom %d outside 0..%d", m.Zoom, maxZoom)
	}
	return nil
}

// GroundResolution is the ground distance of one screen pixel at the center,
// in meters.
func (m MapView) GroundResolution() float64 {
	return m.resolution() / project.MercatorScaleFactor(orb.Point{m.Center.Lng, m.Center.Lat})
}

func (m MapView) resolution() float64 {
	return mercatorResolution / math.Exp2(float64(m.Zoom))
}

// Bounds returns the geographic box visible in a width x height viewport.
func (m MapView) Bounds(width, height int) geometry.BBox {
	c := project.WGS84.ToMercator(orb.Point{m.Center.Lng, m.Center.Lat})
	halfW := float64(width) / 2 * m.resolution()
	halfH := float64(height) / 2 * m.resolution()
	b := project.Bound(orb.Bound{
		Min: orb.Point{c[0] - halfW, c[1] - halfH},
		Max: orb.Point{c[0] + halfW, c[1] + halfH},
	}, project.Mercator.ToWGS84)
	return geometry.BBox{West: b.Min[0], South: b.Min[1], East: b.Max[0], North: b.Max[1]}
}

// Preview draws a visualized image into a width x height viewport. Pixels
// outside the image or without data are transparent.
func Preview(img *imagery.Image, view MapView, width, height int) (*image.RGBA, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	if !IsVisualized(img) {
		return nil, fmt.Errorf("%w: image %s is not visualized", ErrInvalidVisParams, img.ID)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("viewport %dx%d is not positive", width, height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	c := project.WGS84.ToMercator(orb.Point{view.Center.Lng, view.Center.Lat})
	res := view.resolution()
	for py := 0; py < height; py++ {
		y := c[1] + (float64(height)/2-float64(py)-0.5)*res
		for px := 0; px < width; px++ {
			x := c[0] + (float64(px)-float64(width)/2+0.5)*res
			ll := project.Mercator.ToWGS84(orb.Point{x, y})
			col, row := img.Transform.Pixel(ll[0], ll[1])
			if col < 0 || row < 0 || col >= img.Width || row >= img.Height {
				continue
			}
			canvas.SetRGBA(px, py, ColorOf(img, col, row))
		}
	}
	return canvas, nil
}

func EncodePNG(w io.Writer, m image.Image) error {
	return png.Encode(w, m)
}
