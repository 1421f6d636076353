package geometry

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidGeometry = errors.New("invalid geometry")

// Geometry is a region in geographic (lng/lat degree) coordinates. It is used
// both as a spatial filter for catalog queries and as a clip boundary.
type Geometry interface {
	Bound() BBox
	// Area is planar, in square degrees. Zero means the geometry is degenerate.
	Area() float64
	Contains(lng, lat float64) bool
	Validate() error
}

type Point struct {
	Lng float64
	Lat float64
}

func (p Point) Bound() BBox {
	return BBox{West: p.Lng, South: p.Lat, East: p.Lng, North: p.Lat}
}

func (p Point) Area() float64 { return 0 }

func (p Point) Contains(lng, lat float64) bool {
	return lng == p.Lng && lat == p.Lat
}

func (p Point) Validate() error {
	if !validLng(p.Lng) || !validLat(p.Lat) {
		return fmt.Errorf("%w: point (%v, %v) out of range", ErrInvalidGeometry, p.Lng, p.Lat)
	}
	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("POINT(%v %v)", p.Lng, p.Lat)
}

// BBox is an axis aligned box, edges inclusive.
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

func (b BBox) Bound() BBox { return b }

func (b BBox) Area() float64 {
	return (b.East - b.West) * (b.North - b.South)
}

func (b BBox) Contains(lng, lat float64) bool {
	return lng >= b.West && lng <= b.East && lat >= b.South && lat <= b.North
}

func (b BBox) Validate() error {
	if !validLng(b.West) || !validLng(b.East) || !validLat(b.South) || !validLat(b.North) {
		return fmt.Errorf("%w: bbox %v out of range", ErrInvalidGeometry, b)
	}
	if b.West > b.East || b.South > b.North {
		return fmt.Errorf("%w: bbox %v has inverted edges", ErrInvalidGeometry, b)
	}
	return nil
}

func (b BBox) Center() Point {
	return Point{Lng: (b.West + b.East) / 2, Lat: (b.South + b.North) / 2}
}

func (b BBox) Intersects(o BBox) bool {
	return b.West <= o.East && o.West <= b.East && b.South <= o.North && o.South <= b.North
}

// Intersection returns the overlap of two boxes and false when they are disjoint.
func (b BBox) Intersection(o BBox) (BBox, bool) {
	if !b.Intersects(o) {
		return BBox{}, false
	}
	return BBox{
		West:  math.Max(b.West, o.West),
		South: math.Max(b.South, o.South),
		East:  math.Min(b.East, o.East),
		North: math.Min(b.North, o.North),
	}, true
}

func (b BBox) String() string {
	return fmt.Sprintf("BBOX(%v, %v, %v, %v)", b.West, b.South, b.East, b.North)
}

// RequireArea validates g and additionally rejects zero-area geometries, which
// cannot serve as a clip boundary.
func RequireArea(g Geometry) error {
	if g == nil {
		return fmt.Errorf("%w: nil geometry", ErrInvalidGeometry)
	}
	if err := g.Validate(); err != nil {
		return err
	}
	if !(g.Area() > 0) {
		return fmt.Errorf("%w: %v has zero area", ErrInvalidGeometry, g)
	}
	return nil
}

// Intersects reports whether g touches the box b. It is exact for points and
// boxes. Polygons are tested by vertex containment both ways and by edge crossings.
func Intersects(g Geometry, b BBox) bool {
	switch t := g.(type) {
	case Point:
		return b.Contains(t.Lng, t.Lat)
	case BBox:
		return b.Intersects(t)
	case Polygon:
		return t.intersectsBox(b)
	default:
		return g.Bound().Intersects(b)
	}
}

func validLng(v float64) bool {
	return !math.IsNaN(v) && v >= -180 && v <= 180
}

func validLat(v float64) bool {
	return !math.IsNaN(v) && v >= -90 && v <= 90
}
