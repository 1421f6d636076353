package imagery

import (
	"fmt"
	"math"
)

// NoData marks a pixel as absent. Every reduction in this package skips it.
var NoData = math.NaN()

func IsNoData(v float64) bool {
	return math.IsNaN(v)
}

// Band is a single 2-D raster, row-major, with NaN for no-data.
type Band struct {
	Width  int
	Height int
	Data   []float64
}

// NewBand returns a band of the given size with every pixel set to no-data.
func NewBand(width, height int) *Band {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = NoData
	}
	return &Band{Width: width, Height: height, Data: data}
}

func NewBandFrom(width, height int, data []float64) (*Band, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("band size %dx%d is not positive", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("band %dx%d needs %d values, got %d", width, height, width*height, len(data))
	}
	return &Band{Width: width, Height: height, Data: data}, nil
}

func (b *Band) At(col, row int) float64 {
	return b.Data[row*b.Width+col]
}

// Apply returns a new band with fn applied to every pixel. No-data pixels stay
// no-data without calling fn.
func (b *Band) Apply(fn func(float64) float64) *Band {
	out := &Band{Width: b.Width, Height: b.Height, Data: make([]float64, len(b.Data))}
	for i, v := range b.Data {
		if IsNoData(v) {
			out.Data[i] = NoData
			continue
		}
		out.Data[i] = fn(v)
	}
	return out
}

func (b *Band) Clone() *Band {
	data := make([]float64, len(b.Data))
	copy(data, b.Data)
	return &Band{Width: b.Width, Height: b.Height, Data: data}
}
