package imagery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-tools/geometry"
)

func TestMetersToDegrees(t *testing.T) {
	xres, yres := MetersToDegrees(30, 0)
	assert.InDelta(t, 30/111320.0, yres, 1e-12)
	assert.InDelta(t, yres, xres, 1e-12)

	xres, yres = MetersToDegrees(30, 60)
	assert.InDelta(t, 2*yres, xres, 1e-9)
}

func TestCrop(t *testing.T) {
	img := newTestImage(t, "a", 1, map[string][]float64{"b": {1, 2, 3, 4}})

	out, err := Crop(img, geometry.BBox{West: 1, South: 0, East: 2, North: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, []float64{2, 4}, out.Bands["b"].Data)
	assert.Equal(t, 1.0, out.Transform[0])

	_, err = Crop(img, geometry.BBox{West: 10, South: 10, East: 11, North: 11})
	assert.ErrorIs(t, err, geometry.ErrInvalidGeometry)
}

func TestResample(t *testing.T) {
	img := newTestImage(t, "a", 1, map[string][]float64{"b": {1, 2, 3, 4}})

	same, err := Resample(img, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, img.Bands["b"].Data, same.Bands["b"].Data)

	fine, err := Resample(img, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 4, fine.Width)
	assert.Equal(t, 4, fine.Height)
	assert.Equal(t, []float64{
		1, 1, 2, 2,
		1, 1, 2, 2,
		3, 3, 4, 4,
		3, 3, 4, 4,
	}, fine.Bands["b"].Data)

	_, err = Resample(img, 0, 1)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	img := newTestImage(t, "a", 1, map[string][]float64{
		"b":     {1, NoData, 3, 5},
		"empty": {NoData, NoData, NoData, NoData},
	})
	stats := Stats(img)
	require.Len(t, stats, 2)

	assert.Equal(t, BandStats{Band: "b", Valid: 3, Total: 4, Min: 1, Max: 5, Mean: 3}, stats[0])
	assert.Equal(t, 0, stats[1].Valid)
	assert.True(t, IsNoData(stats[1].Mean))
}
