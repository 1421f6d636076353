package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Polygon is an orb polygon in lng/lat order. The first ring is the exterior,
// any further rings are holes.
type Polygon struct {
	orb.Polygon
}

func NewPolygon(p orb.Polygon) Polygon {
	return Polygon{Polygon: p}
}

func (p Polygon) Bound() BBox {
	b := p.Polygon.Bound()
	return BBox{West: b.Min[0], South: b.Min[1], East: b.Max[0], North: b.Max[1]}
}

func (p Polygon) Area() float64 {
	return math.Abs(planar.Area(p.Polygon))
}

func (p Polygon) Contains(lng, lat float64) bool {
	return planar.PolygonContains(p.Polygon, orb.Point{lng, lat})
}

func (p Polygon) Validate() error {
	if len(p.Polygon) == 0 {
		return fmt.Errorf("%w: polygon has no rings", ErrInvalidGeometry)
	}
	for i, ring := range p.Polygon {
		if len(ring) < 4 {
			return fmt.Errorf("%w: ring %d has %d points", ErrInvalidGeometry, i, len(ring))
		}
		if !ring.Closed() {
			return fmt.Errorf("%w: ring %d is not closed", ErrInvalidGeometry, i)
		}
		for _, pt := range ring {
			if !validLng(pt[0]) || !validLat(pt[1]) {
				return fmt.Errorf("%w: vertex %v out of range", ErrInvalidGeometry, pt)
			}
		}
	}
	return nil
}

func (p Polygon) String() string {
	return WKT(p)
}

func (p Polygon) intersectsBox(b BBox) bool {
	if !p.Bound().Intersects(b) {
		return false
	}
	corners := boxRing(b)
	for _, c := range corners[:4] {
		if p.Contains(c[0], c[1]) {
			return true
		}
	}
	for _, ring := range p.Polygon {
		for _, pt := range ring {
			if b.Contains(pt[0], pt[1]) {
				return true
			}
		}
		for i := 0; i+1 < len(ring); i++ {
			for j := 0; j < 4; j++ {
				if segmentsCross(ring[i], ring[i+1], corners[j], corners[j+1]) {
					return true
				}
			}
		}
	}
	return false
}

func boxRing(b BBox) orb.Ring {
	return orb.Ring{
		{b.West, b.South},
		{b.East, b.South},
		{b.East, b.North},
		{b.West, b.North},
		{b.West, b.South},
	}
}

func segmentsCross(a, b, c, d orb.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
