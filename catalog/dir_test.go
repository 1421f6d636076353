package catalog

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-tools/geometry"
)

func orbPolygon(coords ...float64) orb.Polygon {
	ring := orb.Ring{}
	for i := 0; i+1 < len(coords); i += 2 {
		ring = append(ring, orb.Point{coords[i], coords[i+1]})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

func TestReadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), goodProductID+".tif")
	writeScene(t, path, []float64{44000, 0, 45000, 46000})

	img, err := ReadScene(path, 2)
	require.NoError(t, err)
	assert.Equal(t, goodProductID, img.ID)
	assert.Equal(t, 2024, img.Time.Year())
	assert.Equal(t, 2, img.Time.Day())
	assert.Equal(t, sceneGrid, img.Transform)
	assert.Equal(t, []string{"B2", "ST_B10"}, img.BandNames())

	st := img.Bands["ST_B10"]
	assert.Equal(t, 44000.0, st.Data[0])
	assert.True(t, math.IsNaN(st.Data[1]))
	assert.Equal(t, 46000.0, st.Data[3])
	assert.Equal(t, []float64{1, 2, 3, 4}, img.Bands["B2"].Data)
}

func TestReadSceneWithoutDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.tif")
	writeScene(t, path, []float64{1, 1, 1, 1})
	_, err := ReadScene(path, 1)
	assert.ErrorIs(t, err, ErrInvalidProductID)
}

func TestOpenDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "LANDSAT", "LC09", "C02", "T1_L2")
	writeScene(t, filepath.Join(nested, "LC09_L2SP_013031_20240703_20240704_02_T1.tif"), []float64{3, 3, 3, 3})
	writeScene(t, filepath.Join(nested, "LC09_L2SP_013031_20240701_20240702_02_T1.tif"), []float64{1, 1, 1, 1})
	writeScene(t, filepath.Join(nested, "LC09_L2SP_013031_20240705_20240706_02_T1.tif"), []float64{5, 5, 5, 5})
	writeScene(t, filepath.Join(root, "LC08_L2SP_013031_20240702_20240703_02_T1.tif"), []float64{2, 2, 2, 2})
	writeScene(t, filepath.Join(nested, "undated.tif"), []float64{9, 9, 9, 9})
	require.NoError(t, os.WriteFile(filepath.Join(nested, "README.txt"), []byte("not a raster"), 0o644))

	d, err := OpenDir(root, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"LANDSAT/LC08/C02/T1_L2", collectionID}, d.Collections())

	got, err := d.Search(context.Background(), querySpec(t, collectionID, geometry.Point{Lng: -72.63042, Lat: 42.32882}))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Bands["ST_B10"].Data[0])
	assert.Equal(t, 3.0, got[1].Bands["ST_B10"].Data[0])

	got, err = d.Search(context.Background(), querySpec(t, collectionID, geometry.Point{Lng: 0, Lat: 0}))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = d.Search(context.Background(), querySpec(t, "LANDSAT/LC07/C02/T1_L2", geometry.Point{Lng: 0, Lat: 0}))
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestReadHeaderProjected(t *testing.T) {
	path := filepath.Join(t.TempDir(), goodProductID+"_ST_B10.TIF")
	writeUTMBand(t, path, 44000)

	header, err := ReadHeader(path)
	require.NoError(t, err)
	fp := header.Footprint()
	assert.InDelta(t, -72.8, fp.West, 0.1)
	assert.InDelta(t, -72.3, fp.East, 0.1)
	assert.InDelta(t, 42.1, fp.South, 0.1)
	assert.InDelta(t, 42.5, fp.North, 0.1)
}

func TestOpenDirProjectedBandFiles(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "LANDSAT", "LC09", "C02", "T1_L2")
	writeUTMBand(t, filepath.Join(nested, goodProductID+"_ST_B10.TIF"), 44000)
	writeUTMBand(t, filepath.Join(nested, goodProductID+"_SR_B4.TIF"), 8000)

	d, err := OpenDir(root, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{collectionID}, d.Collections())

	got, err := d.Search(context.Background(), querySpec(t, collectionID, geometry.Point{Lng: -72.63042, Lat: 42.32882}))
	require.NoError(t, err)
	require.Len(t, got, 1)

	img := got[0]
	assert.Equal(t, goodProductID, img.ID)
	assert.Equal(t, []string{"SR_B4", "ST_B10"}, img.BandNames())
	assert.True(t, img.Footprint().Contains(-72.63042, 42.32882))
	assert.Less(t, img.Transform[1], 1.0)

	valid := 0
	for _, v := range img.Bands["ST_B10"].Data {
		if math.IsNaN(v) {
			continue
		}
		valid++
		assert.Equal(t, 44000.0, v)
	}
	assert.Positive(t, valid)
}
