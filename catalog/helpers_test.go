package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/require"

	"lst-tools/imagery"
)

// 2x2 pixels of 0.1 degree, lng -72.75..-72.55, lat 42.2..42.4.
var sceneGrid = imagery.GeoTransform{-72.75, 0.1, 0, 42.4, 0, -0.1}

// writeScene writes a two band GeoTIFF: ST_B10 with no-data 0 and an
// undescribed second band.
func writeScene(t testing.TB, path string, thermal []float64) {
	t.Helper()
	godal.RegisterAll()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	ds, err := godal.Create(
		godal.GTiff,
		path,
		2,
		godal.Float64,
		2,
		2,
		godal.CreationOption("TILED=YES", "BLOCKXSIZE=16", "BLOCKYSIZE=16"),
	)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform([6]float64(sceneGrid)))

	bands := ds.Bands()
	require.NoError(t, bands[0].SetDescription("ST_B10"))
	require.NoError(t, bands[0].SetNoData(0))
	require.NoError(t, bands[0].Write(0, 0, thermal, 2, 2))
	require.NoError(t, bands[1].Write(0, 0, []float64{1, 2, 3, 4}, 2, 2))
	require.NoError(t, ds.Close())
}

// 4x4 pixels of 10 km in UTM zone 18N, roughly lng -72.8..-72.3, lat 42.1..42.5.
var utmGrid = [6]float64{680000, 10000, 0, 4710000, 0, -10000}

// writeUTMBand writes a single band GeoTIFF in EPSG:32618 with no-data 0, the
// way Landsat Collection 2 ships one file per band.
func writeUTMBand(t testing.TB, path string, value float64) {
	t.Helper()
	godal.RegisterAll()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, 4, 4)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform(utmGrid))
	srs, err := godal.NewSpatialRefFromEPSG(32618)
	require.NoError(t, err)
	defer srs.Close()
	require.NoError(t, ds.SetSpatialRef(srs))

	data := make([]float64, 16)
	for i := range data {
		data[i] = value
	}
	band := ds.Bands()[0]
	require.NoError(t, band.SetNoData(0))
	require.NoError(t, band.Write(0, 0, data, 4, 4))
	require.NoError(t, ds.Close())
}

func newImage(t testing.TB, id string, acquired time.Time, gt imagery.GeoTransform) *imagery.Image {
	t.Helper()
	img := imagery.NewImage(id, acquired, gt, 2, 2)
	b, err := imagery.NewBandFrom(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	img.Bands["ST_B10"] = b
	return img
}
