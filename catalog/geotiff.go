package catalog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/sirupsen/logrus"

	"lst-tools/imagery"
)

// Dataset metadata keys written by the GeoTIFF exporter and read back here.
const (
	MetadataSceneID  = "SCENE_ID"
	MetadataAcquired = "ACQUISITION_TIME"
)

// ReadHeader reads the grid and acquisition time of a GeoTIFF scene and
// returns them as an image without bands. For a projected scene the grid spans
// the scene's bounds reprojected to lng/lat degrees.
func ReadHeader(path string) (img *imagery.Image, err error) {
	godal.RegisterAll()
	ds, err := godal.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, ds.Close())
	}()

	img, err = readHeader(ds, path)
	if err != nil || !projected(ds) {
		return img, err
	}
	wgs84, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return nil, err
	}
	defer wgs84.Close()
	bounds, err := ds.Bounds(wgs84)
	if err != nil {
		return nil, fmt.Errorf("reprojecting bounds of %s: %w", path, err)
	}
	img.Transform = imagery.GeoTransform{
		bounds[0], (bounds[2] - bounds[0]) / float64(img.Width), 0,
		bounds[3], 0, -(bounds[3] - bounds[1]) / float64(img.Height),
	}
	return img, nil
}

// ReadScene reads every band of a GeoTIFF scene. Band names come from the band
// descriptions, falling back to B1, B2, ... Pixels equal to the band's no-data
// value become imagery.NoData. Projected scenes, such as Landsat products in
// UTM, are warped to EPSG:4326 in memory before reading.
func ReadScene(path string, workers int) (img *imagery.Image, err error) {
	logrus.Debug("Entered ReadScene")
	godal.RegisterAll()
	ds, err := godal.Open(path)
	if err != nil {
		logrus.Error(err)
		return nil, err
	}
	defer func() {
		err = errors.Join(err, ds.Close())
	}()

	img, err = readHeader(ds, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ds.Bands()))
	for i, band := range ds.Bands() {
		names = append(names, bandName(band, i))
	}

	src := ds
	if projected(ds) {
		logrus.Debugf("Warping %s to EPSG:4326", path)
		var warped *godal.Dataset
		if warped, err = ds.Warp("", warpSwitches, godal.Memory); err != nil {
			return nil, fmt.Errorf("warping %s: %w", path, err)
		}
		defer func() {
			err = errors.Join(err, warped.Close())
		}()
		var gt [6]float64
		if gt, err = warped.GeoTransform(); err != nil {
			return nil, err
		}
		structure := warped.Structure()
		img = imagery.NewImage(img.ID, img.Time, imagery.GeoTransform(gt), structure.SizeX, structure.SizeY)
		src = warped
	}

	// Locking is required to read from compressed rasters.
	var mu sync.Mutex
	for i, band := range src.Bands() {
		data, err := readBand(band, &mu, workers)
		if err != nil {
			return nil, fmt.Errorf("reading band %d of %s: %w", i+1, path, err)
		}
		img.Bands[names[i]] = data
	}
	logrus.Debug("Exited ReadScene")
	return img, nil
}

// Pixels outside the source footprint come out of the warp as NaN.
var warpSwitches = []string{"-t_srs", "EPSG:4326", "-ot", "Float64", "-dstnodata", "nan", "-r", "near"}

// projected reports whether the dataset has a projected spatial reference.
// Rasters without one are taken to be in lng/lat degrees.
func projected(ds *godal.Dataset) bool {
	if ds.Projection() == "" {
		return false
	}
	sr := ds.SpatialRef()
	defer sr.Close()
	return sr.Projected()
}

func readHeader(ds *godal.Dataset, path string) (*imagery.Image, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		logrus.Error(err)
		return nil, err
	}
	structure := ds.Structure()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := ds.Metadata(MetadataSceneID)
	if id == "" {
		id = base
	}
	acquired, err := acquisitionTime(ds, base)
	if err != nil {
		return nil, err
	}
	return imagery.NewImage(id, acquired, imagery.GeoTransform(gt), structure.SizeX, structure.SizeY), nil
}

func acquisitionTime(ds *godal.Dataset, base string) (time.Time, error) {
	if v := ds.Metadata(MetadataAcquired); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: bad %s %q: %w", base, MetadataAcquired, v, err)
		}
		return t.UTC(), nil
	}
	pid, err := ParseProductID(base)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: no %s metadata and %w", base, MetadataAcquired, err)
	}
	return pid.Acquired, nil
}

func bandName(band godal.Band, i int) string {
	if name := strings.TrimSpace(band.Description()); name != "" {
		return name
	}
	return fmt.Sprintf("B%d", i+1)
}

// readBand reads a band block by block with a pool of workers.
func readBand(band godal.Band, mu *sync.Mutex, workers int) (*imagery.Band, error) {
	if workers <= 0 {
		workers = imagery.DefaultWorkers
	}
	structure := band.Structure()
	out := imagery.NewBand(structure.SizeX, structure.SizeY)
	noData, hasNoData := band.NoData()
	if !hasNoData {
		logrus.Debug("NoData not set")
	}

	blocks := make(chan godal.Block)
	go func() {
		defer close(blocks)
		for block, ok := structure.FirstBlock(), true; ok; block, ok = block.Next() {
			blocks <- block
		}
	}()

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for block := range blocks {
				if err := readBlock(band, mu, block, out, noData, hasNoData); err != nil {
					logrus.Error(err)
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return out, firstErr
}

func readBlock(band godal.Band, mu *sync.Mutex, block godal.Block, out *imagery.Band, noData float64, hasNoData bool) error {
	logrus.Debugf("Reading block at [%v, %v]", block.X0, block.Y0)
	blockBuf := make([]float64, block.W*block.H)
	if err := lockedRead(band, mu, block, blockBuf); err != nil {
		return err
	}
	// GDAL is row-major
	for pix, value := range blockBuf {
		if hasNoData && value == noData {
			continue
		}
		row := block.Y0 + pix/block.W
		col := block.X0 + pix%block.W
		out.Data[row*out.Width+col] = value
	}
	return nil
}

func lockedRead(band godal.Band, mu *sync.Mutex, block godal.Block, blockBuf []float64) error {
	mu.Lock()
	defer mu.Unlock()
	return band.Read(block.X0, block.Y0, blockBuf, block.W, block.H)
}
