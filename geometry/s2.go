package geometry

import (
	"fmt"
	"strings"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// CoverLevel is the finest s2 level used when covering query regions and scene
// footprints. Level 12 cells are roughly 2km across.
const CoverLevel = 12

const maxCoverCells = 32

// Rect converts the box to an s2 lat/lng rectangle.
func (b BBox) Rect() s2.Rect {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(b.South, b.West))
	return rect.AddPoint(s2.LatLngFromDegrees(b.North, b.East))
}

// Covering returns an s2 cell union covering the bound of g.
func Covering(g Geometry, maxLevel int) s2.CellUnion {
	rc := &s2.RegionCoverer{MinLevel: 0, MaxLevel: maxLevel, LevelMod: 1, MaxCells: maxCoverCells}
	return rc.Covering(g.Bound().Rect())
}

// CellID returns the s2 cell at level containing the given location.
func CellID(lng, lat float64, level int) s2.CellID {
	latLng := s2.LatLngFromDegrees(lat, lng)
	return s2.CellIDFromLatLng(latLng).Parent(level)
}

func CellToWKT(cell s2.Cell) string {
	wkt := "POLYGON(("
	for k := 0; k < 4; k++ {
		latlng := s2.LatLngFromPoint(cell.Vertex(k))
		wkt += fmt.Sprintf("%v %v, ", latlng.Lng.Degrees(), latlng.Lat.Degrees())
	}
	closingPoint := s2.LatLngFromPoint(cell.Vertex(0))
	wkt += fmt.Sprintf("%v %v))", closingPoint.Lng.Degrees(), closingPoint.Lat.Degrees())

	return wkt
}

// WKT renders a geometry as well known text, lng before lat.
func WKT(g Geometry) string {
	switch t := g.(type) {
	case Point:
		return t.String()
	case Polygon:
		rings := make([]string, 0, len(t.Polygon))
		for _, ring := range t.Polygon {
			coords := make([]string, 0, len(ring))
			for _, pt := range ring {
				coords = append(coords, fmt.Sprintf("%v %v", pt[0], pt[1]))
			}
			rings = append(rings, "("+strings.Join(coords, ", ")+")")
		}
		return "POLYGON(" + strings.Join(rings, ", ") + ")"
	default:
		return WKT(NewPolygon(ToOrb(g.Bound()).(orb.Polygon)))
	}
}
