package scaling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-tools/imagery"
)

func newScene(t *testing.T, bands map[string][]float64) *imagery.Image {
	t.Helper()
	img := imagery.NewImage("LC09_L2SP_013031_20240702_20240703_02_T1", time.Date(2024, 7, 2, 15, 30, 0, 0, time.UTC),
		imagery.GeoTransform{-72.75, 0.01, 0, 42.38, 0, -0.01}, 2, 1)
	for name, values := range bands {
		b, err := imagery.NewBandFrom(2, 1, values)
		require.NoError(t, err)
		img.Bands[name] = b
	}
	return img
}

func TestReflectance(t *testing.T) {
	for _, v := range []float64{0, 1, 7273, 10000, 43636, 65535} {
		assert.InDelta(t, v*0.0000275-0.2, Reflectance(v), 1e-12, "dn %v", v)
	}
	assert.InDelta(t, 0.0, Reflectance(7272.727272727), 1e-9)
}

func TestThermalStages(t *testing.T) {
	const dn = 44000.0

	kelvin := Kelvin(dn)
	assert.InDelta(t, 299.39288, kelvin, 1e-9)

	celsius := Celsius(kelvin)
	assert.InDelta(t, 26.24288, celsius, 1e-9)

	fahrenheit := Fahrenheit(celsius)
	assert.InDelta(t, 79.237184, fahrenheit, 1e-9)

	assert.Equal(t, fahrenheit, ThermalFahrenheit(dn))
	assert.Equal(t, 32.0, Fahrenheit(0))
	assert.Equal(t, 212.0, Fahrenheit(100))
	assert.Equal(t, 0.0, Celsius(273.15))
}

func TestThermalFormula(t *testing.T) {
	for _, v := range []float64{0, 300, 310, 320, 40000, 52000} {
		want := ((v*0.00341802 + 149.0) - 273.15) * (9.0 / 5.0) + 32
		assert.InDelta(t, want, ThermalFahrenheit(v), 1e-9, "dn %v", v)
	}
}

func TestApplyScaleFactors(t *testing.T) {
	img := newScene(t, map[string][]float64{
		"SR_B4":    {10000, imagery.NoData},
		"SR_B5":    {20000, 30000},
		"ST_B10":   {44000, 45000},
		"QA_PIXEL": {21824, 21952},
	})

	out, err := ApplyScaleFactors(img, Policy{})
	require.NoError(t, err)

	assert.Equal(t, Reflectance(10000), out.Bands["SR_B4"].Data[0])
	assert.True(t, imagery.IsNoData(out.Bands["SR_B4"].Data[1]))
	assert.Equal(t, Reflectance(30000), out.Bands["SR_B5"].Data[1])
	assert.Equal(t, ThermalFahrenheit(45000), out.Bands["ST_B10"].Data[1])
	// Unmatched bands pass through untouched.
	assert.Same(t, img.Bands["QA_PIXEL"], out.Bands["QA_PIXEL"])
	// Input is not modified.
	assert.Equal(t, 44000.0, img.Bands["ST_B10"].Data[0])
}

func TestApplyScaleFactorsNotIdempotent(t *testing.T) {
	img := newScene(t, map[string][]float64{
		"SR_B4":  {10000, 12000},
		"ST_B10": {44000, 45000},
	})

	once, err := ApplyScaleFactors(img, Policy{})
	require.NoError(t, err)
	twice, err := ApplyScaleFactors(once, Policy{})
	require.NoError(t, err)

	assert.NotEqual(t, once.Bands["SR_B4"].Data, twice.Bands["SR_B4"].Data)
	assert.NotEqual(t, once.Bands["ST_B10"].Data, twice.Bands["ST_B10"].Data)
}

func TestApplyScaleFactorsPolicy(t *testing.T) {
	img := newScene(t, map[string][]float64{"ST_B10": {44000, 45000}})

	out, err := ApplyScaleFactors(img, Policy{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ST_B10"}, out.BandNames())

	_, err = ApplyScaleFactors(img, Policy{RequireMatch: true})
	assert.ErrorIs(t, err, imagery.ErrInvalidBand)
}

func TestScaleFactorsTransform(t *testing.T) {
	img := newScene(t, map[string][]float64{"ST_B10": {300, 310}})
	out, err := ScaleFactors(Policy{})(img)
	require.NoError(t, err)
	assert.Equal(t, ThermalFahrenheit(310), out.Bands["ST_B10"].Data[1])
}
