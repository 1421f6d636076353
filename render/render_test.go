package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-tools/geometry"
	"lst-tools/imagery"
)

func newComposite(t *testing.T, values []float64) *imagery.Image {
	t.Helper()
	img := imagery.NewImage("composite", time.Time{}, imagery.GeoTransform{-72.75, 0.05, 0, 42.4, 0, -0.05}, len(values), 1)
	b, err := imagery.NewBandFrom(len(values), 1, values)
	require.NoError(t, err)
	img.Bands["ST_B10"] = b
	return img
}

func rgbAt(img *imagery.Image, col int) color.RGBA {
	return ColorOf(img, col, 0)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#a50026")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xa5, G: 0x00, B: 0x26, A: 255}, c)

	c, err = ParseColor("006837")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x00, G: 0x68, B: 0x37, A: 255}, c)

	_, err = ParseColor("#12345")
	assert.ErrorIs(t, err, ErrInvalidVisParams)
	_, err = ParseColor("#zzzzzz")
	assert.ErrorIs(t, err, ErrInvalidVisParams)
}

func TestTemperaturePaletteIsReversed(t *testing.T) {
	assert.Equal(t, "#006837", TemperaturePalette[0])
	assert.Equal(t, "#a50026", TemperaturePalette[len(TemperaturePalette)-1])
	assert.Equal(t, "#a50026", RdYlGn11[0])
}

func TestVisualizeClamping(t *testing.T) {
	vis := DefaultVisParams()
	first, _ := ParseColor(vis.Palette[0])
	last, _ := ParseColor(vis.Palette[len(vis.Palette)-1])

	img := newComposite(t, []float64{140, 130, 69.9, 70, imagery.NoData})
	out, err := Visualize(img, vis)
	require.NoError(t, err)
	require.True(t, IsVisualized(out))

	assert.Equal(t, last, rgbAt(out, 0), "above max maps to the last color")
	assert.Equal(t, last, rgbAt(out, 1))
	assert.Equal(t, first, rgbAt(out, 2), "below min maps to the first color")
	assert.Equal(t, first, rgbAt(out, 3))
	assert.Equal(t, color.RGBA{}, rgbAt(out, 4), "no-data is transparent")
}

func TestVisualizeInterpolates(t *testing.T) {
	vis := VisParams{Bands: []string{"ST_B10"}, Min: 0, Max: 100, Palette: []string{"#000000", "#ffffff"}}
	out, err := Visualize(newComposite(t, []float64{50, 25}), vis)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, rgbAt(out, 0))
	assert.Equal(t, color.RGBA{R: 64, G: 64, B: 64, A: 255}, rgbAt(out, 1))
}

func TestVisualizeGrayscale(t *testing.T) {
	vis := VisParams{Bands: []string{"ST_B10"}, Min: 0, Max: 10}
	out, err := Visualize(newComposite(t, []float64{10, 0}), vis)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, rgbAt(out, 0))
	assert.Equal(t, color.RGBA{A: 255}, rgbAt(out, 1))
}

func TestVisParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultVisParams().Validate())

	bad := []VisParams{
		{Bands: nil, Min: 0, Max: 1},
		{Bands: []string{"a", "b"}, Min: 0, Max: 1},
		{Bands: []string{"a"}, Min: 1, Max: 1},
		{Bands: []string{"a", "b", "c"}, Min: 0, Max: 1, Palette: []string{"#000000"}},
		{Bands: []string{"a"}, Min: 0, Max: 1, Palette: []string{"red"}},
	}
	for _, v := range bad {
		assert.ErrorIs(t, v.Validate(), ErrInvalidVisParams, "%+v", v)
	}
}

func TestVisualizeMissingBand(t *testing.T) {
	vis := VisParams{Bands: []string{"ST_B11"}, Min: 0, Max: 1}
	_, err := Visualize(newComposite(t, []float64{1}), vis)
	assert.ErrorIs(t, err, imagery.ErrInvalidBand)
}

func TestMapViewBounds(t *testing.T) {
	view := DefaultMapView()
	require.NoError(t, view.Validate())

	b := view.Bounds(512, 512)
	assert.True(t, b.Contains(view.Center.Lng, view.Center.Lat))
	// 512px at zoom 13 spans 512 * 360 / 2^21 degrees of longitude.
	assert.InDelta(t, 512*360/float64(1<<21), b.East-b.West, 1e-9)
	// Mercator stretches toward the pole, so the north half spans fewer degrees.
	assert.Less(t, b.North-view.Center.Lat, view.Center.Lat-b.South)
	assert.InDelta(t, 14.1, view.GroundResolution(), 0.2)

	assert.Error(t, MapView{Center: view.Center, Zoom: 30}.Validate())
}

func TestPreview(t *testing.T) {
	vis := VisParams{Bands: []string{"ST_B10"}, Min: 0, Max: 1, Palette: []string{"#ff0000"}}
	img := newComposite(t, []float64{1, 1, 1, 1, 1, 1})
	out, err := Visualize(img, vis)
	require.NoError(t, err)

	view := MapView{Center: geometry.Point{Lng: -72.6, Lat: 42.375}, Zoom: 10}
	canvas, err := Preview(out, view, 64, 64)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, canvas.RGBAAt(32, 32))

	// Far away view shows nothing.
	empty, err := Preview(out, MapView{Center: geometry.Point{Lng: 10, Lat: 10}, Zoom: 10}, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{}, empty.RGBAAt(4, 4))

	var buf bytes.Buffer
	require.NoError(t, EncodePNG(&buf, canvas))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())

	_, err = Preview(img, view, 8, 8)
	assert.ErrorIs(t, err, ErrInvalidVisParams)
}
