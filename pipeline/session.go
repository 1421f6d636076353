package pipeline

import (
	"context"

	"lst-tools/imagery"
)

// Session is the handle on the imagery platform that executes a graph. It is
// passed explicitly to every evaluation instead of living in global state.
type Session interface {
	// Search returns the images matching q, ordered by acquisition time.
	Search(ctx context.Context, q QuerySpec) (imagery.Collection, error)
	// Function resolves a function name used by a map node.
	Function(name string) (imagery.Transform, error)
}
