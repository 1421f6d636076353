package imagery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-tools/geometry"
)

func TestWithBandsDoesNotMutate(t *testing.T) {
	img := newTestImage(t, "a", 1, map[string][]float64{"SR_B4": {1, 2, 3, 4}})
	replacement, err := NewBandFrom(2, 2, []float64{9, 9, 9, 9})
	require.NoError(t, err)

	out, err := img.WithBands(map[string]*Band{"SR_B4": replacement})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2, 3, 4}, img.Bands["SR_B4"].Data)
	assert.Equal(t, []float64{9, 9, 9, 9}, out.Bands["SR_B4"].Data)
}

func TestWithBandsRejectsWrongSize(t *testing.T) {
	img := newTestImage(t, "a", 1, nil)
	_, err := img.WithBands(map[string]*Band{"big": NewBand(3, 3)})
	assert.Error(t, err)
}

func TestNewBandFromChecksLength(t *testing.T) {
	_, err := NewBandFrom(2, 2, []float64{1, 2, 3})
	assert.Error(t, err)
	_, err = NewBandFrom(0, 2, nil)
	assert.Error(t, err)
}

func TestFootprintAndPixels(t *testing.T) {
	img := newTestImage(t, "a", 1, nil)
	assert.Equal(t, geometry.BBox{West: 0, South: 0, East: 2, North: 2}, img.Footprint())

	lng, lat := img.Transform.PixelCenter(1, 0)
	assert.Equal(t, 1.5, lng)
	assert.Equal(t, 1.5, lat)

	col, row := img.Transform.Pixel(0.2, 0.2)
	assert.Equal(t, 0, col)
	assert.Equal(t, 1, row)

	col, _ = img.Transform.Pixel(-0.5, 1)
	assert.Equal(t, -1, col)
}

func TestBandApplySkipsNoData(t *testing.T) {
	b, err := NewBandFrom(2, 1, []float64{2, NoData})
	require.NoError(t, err)

	calls := 0
	out := b.Apply(func(v float64) float64 {
		calls++
		return v * 10
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 20.0, out.Data[0])
	assert.True(t, IsNoData(out.Data[1]))
}
