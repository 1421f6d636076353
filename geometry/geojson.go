package geometry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FromGeoJSON parses a GeoJSON geometry, feature or feature collection. For a
// collection the first feature is used.
func FromGeoJSON(data []byte) (Geometry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		if len(fc.Features) == 0 {
			return nil, fmt.Errorf("%w: feature collection is empty", ErrInvalidGeometry)
		}
		return FromOrb(fc.Features[0].Geometry)
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return FromOrb(f.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		return FromOrb(g.Geometry())
	}
}

func ReadGeoJSONFile(path string) (Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromGeoJSON(data)
}

func FromOrb(g orb.Geometry) (Geometry, error) {
	var out Geometry
	switch t := g.(type) {
	case orb.Point:
		out = Point{Lng: t[0], Lat: t[1]}
	case orb.Bound:
		out = BBox{West: t.Min[0], South: t.Min[1], East: t.Max[0], North: t.Max[1]}
	case orb.Polygon:
		out = NewPolygon(t)
	case orb.Ring:
		out = NewPolygon(orb.Polygon{t})
	default:
		return nil, fmt.Errorf("%w: unsupported geometry type %T", ErrInvalidGeometry, g)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func ToOrb(g Geometry) orb.Geometry {
	switch t := g.(type) {
	case Point:
		return orb.Point{t.Lng, t.Lat}
	case BBox:
		return orb.Polygon{boxRing(t)}
	case Polygon:
		return t.Polygon
	default:
		return orb.Polygon{boxRing(g.Bound())}
	}
}

// Encoded is the serialized form of a Geometry used inside computation graphs.
// Boxes keep their own type so that they decode back to a BBox rather than a
// rectangular polygon.
type Encoded struct {
	Type    string            `json:"type"`
	Point   []float64         `json:"point,omitempty"`
	BBox    []float64         `json:"bbox,omitempty"`
	GeoJSON *geojson.Geometry `json:"geojson,omitempty"`
}

func Encode(g Geometry) (*Encoded, error) {
	switch t := g.(type) {
	case Point:
		return &Encoded{Type: "point", Point: []float64{t.Lng, t.Lat}}, nil
	case BBox:
		return &Encoded{Type: "bbox", BBox: []float64{t.West, t.South, t.East, t.North}}, nil
	case Polygon:
		return &Encoded{Type: "polygon", GeoJSON: geojson.NewGeometry(t.Polygon)}, nil
	default:
		return nil, fmt.Errorf("%w: cannot encode %T", ErrInvalidGeometry, g)
	}
}

func (e *Encoded) Decode() (Geometry, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: missing geometry", ErrInvalidGeometry)
	}
	var g Geometry
	switch e.Type {
	case "point":
		if len(e.Point) != 2 {
			return nil, fmt.Errorf("%w: point needs 2 coordinates, got %d", ErrInvalidGeometry, len(e.Point))
		}
		g = Point{Lng: e.Point[0], Lat: e.Point[1]}
	case "bbox":
		if len(e.BBox) != 4 {
			return nil, fmt.Errorf("%w: bbox needs 4 coordinates, got %d", ErrInvalidGeometry, len(e.BBox))
		}
		g = BBox{West: e.BBox[0], South: e.BBox[1], East: e.BBox[2], North: e.BBox[3]}
	case "polygon":
		if e.GeoJSON == nil {
			return nil, fmt.Errorf("%w: polygon without geojson", ErrInvalidGeometry)
		}
		return FromOrb(e.GeoJSON.Geometry())
	default:
		return nil, fmt.Errorf("%w: unknown geometry type %q", ErrInvalidGeometry, e.Type)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
