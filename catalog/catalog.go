// Package catalog holds the local image catalogs a session searches: an
// in-memory catalog and a directory of GeoTIFF scenes. Both index scene
// footprints with s2 cell coverings.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/golang/geo/s2"

	"lst-tools/geometry"
	"lst-tools/imagery"
	"lst-tools/pipeline"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Catalog answers collection queries.
type Catalog interface {
	Search(ctx context.Context, q pipeline.QuerySpec) (imagery.Collection, error)
	Collections() []string
}

// filter is a decoded query region with its s2 covering.
type filter struct {
	spec  pipeline.QuerySpec
	geom  geometry.Geometry
	cells s2.CellUnion
}

func newFilter(q pipeline.QuerySpec) (filter, error) {
	g, err := q.Geometry()
	if err != nil {
		return filter{}, err
	}
	return filter{spec: q, geom: g, cells: geometry.Covering(g, geometry.CoverLevel)}, nil
}

// matches is the exact test; cells prunes before the footprint is compared.
func (f filter) matches(footprint geometry.BBox, cells s2.CellUnion, acquired time.Time) bool {
	if !f.spec.InRange(acquired.UTC()) {
		return false
	}
	if !cells.Intersects(f.cells) {
		return false
	}
	return geometry.Intersects(f.geom, footprint)
}
