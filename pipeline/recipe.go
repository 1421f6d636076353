package pipeline

import (
	"time"

	"lst-tools/geometry"
	"lst-tools/render"
)

// Recipe is the full temperature composite: query, per-image functions,
// temporal reduction, clip and visualization.
type Recipe struct {
	CatalogID string
	Start     time.Time
	End       time.Time
	Filter    geometry.Geometry
	// Functions are applied in order to every image of the collection.
	Functions []string
	Reducer   string
	Region    geometry.Geometry
	Vis       render.VisParams
}

// Built holds the lazy handles of a recipe.
type Built struct {
	Collection *Collection
	Composite  *Image
	Clipped    *Image
	Visualized *Image
}

// Build constructs the graph. Every construction error surfaces here, before
// anything is submitted to a session.
func (r Recipe) Build() (Built, error) {
	coll, err := Query(r.CatalogID, r.Start, r.End, r.Filter)
	if err != nil {
		return Built{}, err
	}
	for _, fn := range r.Functions {
		coll = coll.Map(fn)
	}

	reducer := r.Reducer
	if reducer == "" {
		reducer = "mean"
	}
	composite, err := coll.Reduce(reducer)
	if err != nil {
		return Built{}, err
	}
	clipped, err := composite.Clip(r.Region)
	if err != nil {
		return Built{}, err
	}
	visualized, err := clipped.Visualize(r.Vis)
	if err != nil {
		return Built{}, err
	}
	return Built{Collection: coll, Composite: composite, Clipped: clipped, Visualized: visualized}, nil
}
