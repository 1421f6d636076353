package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"lst-tools/imagery"
	"lst-tools/render"
)

// Evaluator materializes graphs against a session.
type Evaluator struct {
	Session Session
	// Workers bounds the fan-out of map nodes.
	Workers int
}

func NewEvaluator(session Session, workers int) *Evaluator {
	return &Evaluator{Session: session, Workers: workers}
}

// Image materializes an image handle.
func (e *Evaluator) Image(ctx context.Context, img *Image) (*imagery.Image, error) {
	return e.evalImage(ctx, img.node)
}

// Collection materializes a collection handle.
func (e *Evaluator) Collection(ctx context.Context, c *Collection) (imagery.Collection, error) {
	return e.evalCollection(ctx, c.node)
}

func (e *Evaluator) evalCollection(ctx context.Context, n *Node) (imagery.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logrus.Debugf("Evaluating %s node", n.Op)

	switch n.Op {
	case OpQuery:
		images, err := e.Session.Search(ctx, *n.Query)
		if err != nil {
			return nil, err
		}
		logrus.Infof("Query on %s matched %d images", n.Query.CatalogID, len(images))
		return images, nil

	case OpMap:
		fn, err := e.Session.Function(n.Function)
		if err != nil {
			return nil, err
		}
		in, err := e.evalCollection(ctx, n.Input)
		if err != nil {
			return nil, err
		}
		return imagery.Map(ctx, in, fn, e.Workers)

	default:
		return nil, fmt.Errorf("%w: %s does not yield a collection", ErrInvalidQuery, n.Op)
	}
}

func (e *Evaluator) evalImage(ctx context.Context, n *Node) (*imagery.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logrus.Debugf("Evaluating %s node", n.Op)

	switch n.Op {
	case OpReduce:
		agg, ok := imagery.Reducer(n.Reducer)
		if !ok {
			return nil, fmt.Errorf("%w: reducer %q", ErrUnknownFunction, n.Reducer)
		}
		in, err := e.evalCollection(ctx, n.Input)
		if err != nil {
			return nil, err
		}
		return imagery.Reduce(in, n.Reducer, agg)

	case OpClip:
		region, err := n.Region.Decode()
		if err != nil {
			return nil, err
		}
		in, err := e.evalImage(ctx, n.Input)
		if err != nil {
			return nil, err
		}
		return imagery.Clip(in, region)

	case OpVisualize:
		in, err := e.evalImage(ctx, n.Input)
		if err != nil {
			return nil, err
		}
		return render.Visualize(in, *n.Vis)

	default:
		return nil, fmt.Errorf("%w: %s does not yield an image", ErrInvalidQuery, n.Op)
	}
}
