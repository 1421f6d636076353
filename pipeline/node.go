package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"lst-tools/geometry"
	"lst-tools/imagery"
	"lst-tools/render"
)

// Op tags a node of the computation graph.
type Op string

const (
	OpQuery     Op = "query"
	OpMap       Op = "map"
	OpReduce    Op = "reduce"
	OpClip      Op = "clip"
	OpVisualize Op = "visualize"
)

var ErrUnknownFunction = errors.New("unknown function")

// Node is one deferred operation. Collection-valued nodes are query and map;
// image-valued nodes are reduce, clip and visualize. Nodes are never modified
// after construction, so handles can share inputs.
type Node struct {
	Op       Op                `json:"op"`
	Input    *Node             `json:"input,omitempty"`
	Query    *QuerySpec        `json:"query,omitempty"`
	Function string            `json:"function,omitempty"`
	Reducer  string            `json:"reducer,omitempty"`
	Region   *geometry.Encoded `json:"region,omitempty"`
	Vis      *render.VisParams `json:"vis,omitempty"`
}

func (n *Node) yieldsCollection() bool {
	return n.Op == OpQuery || n.Op == OpMap
}

// String renders the graph as nested calls, innermost first.
func (n *Node) String() string {
	switch n.Op {
	case OpQuery:
		return fmt.Sprintf("query(%s)", n.Query.CatalogID)
	case OpMap:
		return fmt.Sprintf("map(%s, %s)", n.Input, n.Function)
	case OpReduce:
		return fmt.Sprintf("%s(%s)", n.Reducer, n.Input)
	case OpClip:
		return fmt.Sprintf("clip(%s)", n.Input)
	case OpVisualize:
		return fmt.Sprintf("visualize(%s)", n.Input)
	default:
		return string(n.Op)
	}
}

// validate checks the structure of a graph, typically one decoded from JSON.
func (n *Node) validate() error {
	if n == nil {
		return fmt.Errorf("%w: missing node", ErrInvalidQuery)
	}
	switch n.Op {
	case OpQuery:
		if n.Query == nil {
			return fmt.Errorf("%w: query node without query", ErrInvalidQuery)
		}
		return n.Query.validate()
	case OpMap:
		if n.Function == "" {
			return fmt.Errorf("%w: map node without function", ErrUnknownFunction)
		}
		return n.validateInput(true)
	case OpReduce:
		if _, ok := imagery.Reducer(n.Reducer); !ok {
			return fmt.Errorf("%w: reducer %q", ErrUnknownFunction, n.Reducer)
		}
		return n.validateInput(true)
	case OpClip:
		g, err := n.Region.Decode()
		if err != nil {
			return err
		}
		if err := geometry.RequireArea(g); err != nil {
			return err
		}
		return n.validateInput(false)
	case OpVisualize:
		if n.Vis == nil {
			return fmt.Errorf("%w: visualize node without parameters", render.ErrInvalidVisParams)
		}
		if err := n.Vis.Validate(); err != nil {
			return err
		}
		return n.validateInput(false)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidQuery, n.Op)
	}
}

func (n *Node) validateInput(wantCollection bool) error {
	if n.Input == nil {
		return fmt.Errorf("%w: %s node without input", ErrInvalidQuery, n.Op)
	}
	if n.Input.yieldsCollection() != wantCollection {
		return fmt.Errorf("%w: %s node cannot take a %s input", ErrInvalidQuery, n.Op, n.Input.Op)
	}
	return n.Input.validate()
}

// Collection is a lazy handle on an image collection.
type Collection struct {
	node *Node
}

// Image is a lazy handle on a single image.
type Image struct {
	node *Node
}

func (c *Collection) Node() *Node { return c.node }
func (i *Image) Node() *Node      { return i.node }

func (c *Collection) String() string { return c.node.String() }
func (i *Image) String() string      { return i.node.String() }

// Map applies the session function registered under name to every member.
// The name is resolved when the graph is evaluated.
func (c *Collection) Map(function string) *Collection {
	return &Collection{node: &Node{Op: OpMap, Input: c.node, Function: function}}
}

// Reduce collapses the collection with a named reducer (mean, sum, min, max).
func (c *Collection) Reduce(reducer string) (*Image, error) {
	if _, ok := imagery.Reducer(reducer); !ok {
		return nil, fmt.Errorf("%w: reducer %q", ErrUnknownFunction, reducer)
	}
	return &Image{node: &Node{Op: OpReduce, Input: c.node, Reducer: reducer}}, nil
}

// Mean is Reduce("mean").
func (c *Collection) Mean() *Image {
	return &Image{node: &Node{Op: OpReduce, Input: c.node, Reducer: "mean"}}
}

// Clip restricts the image to a region with non-zero area.
func (i *Image) Clip(region geometry.Geometry) (*Image, error) {
	if err := geometry.RequireArea(region); err != nil {
		return nil, err
	}
	enc, err := geometry.Encode(region)
	if err != nil {
		return nil, err
	}
	return &Image{node: &Node{Op: OpClip, Input: i.node, Region: enc}}, nil
}

// Visualize maps the image to display colors.
func (i *Image) Visualize(vis render.VisParams) (*Image, error) {
	if err := vis.Validate(); err != nil {
		return nil, err
	}
	return &Image{node: &Node{Op: OpVisualize, Input: i.node, Vis: &vis}}, nil
}

// MarshalJSON encodes the graph behind the handle.
func (i *Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.node)
}

// DecodeImage rebuilds an image handle from an encoded graph.
func DecodeImage(data []byte) (*Image, error) {
	var n Node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if n.yieldsCollection() {
		return nil, fmt.Errorf("%w: graph yields a collection, not an image", ErrInvalidQuery)
	}
	if err := n.validate(); err != nil {
		return nil, err
	}
	return &Image{node: &n}, nil
}
