package scaling

import (
	"fmt"

	"github.com/edisonguo/govaluate"

	"lst-tools/imagery"
)

// ExpressionPrefix namespaces band-math functions registered in a session.
const ExpressionPrefix = "expr:"

// NewExpression compiles a band-math expression such as
// "(SR_B5 - SR_B4) / (SR_B5 + SR_B4)". Variables are band names. The returned
// transform writes the result to the output band; a pixel where any input is
// no-data is no-data.
func NewExpression(output, expr string) (imagery.Transform, error) {
	if output == "" {
		return nil, fmt.Errorf("%w: expression %q has no output band", imagery.ErrInvalidBand, expr)
	}
	compiled, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("parse expression %q: %w", expr, err)
	}
	vars := compiled.Vars()

	return func(img *imagery.Image) (*imagery.Image, error) {
		inputs := make([]*imagery.Band, len(vars))
		for i, name := range vars {
			b, ok := img.Bands[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s not in image %s", imagery.ErrInvalidBand, name, img.ID)
			}
			inputs[i] = b
		}

		out := imagery.NewBand(img.Width, img.Height)
		params := make(map[string]interface{}, len(vars))
	pixels:
		for pix := range out.Data {
			for i, name := range vars {
				v := inputs[i].Data[pix]
				if imagery.IsNoData(v) {
					continue pixels
				}
				params[name] = v
			}
			result, err := compiled.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("evaluate %q on %s: %w", expr, img.ID, err)
			}
			out.Data[pix] = toFloat(result)
		}
		return img.WithBands(map[string]*imagery.Band{output: out})
	}, nil
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return imagery.NoData
	}
}
