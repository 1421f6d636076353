package export

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/sirupsen/logrus"

	"lst-tools/catalog"
	"lst-tools/imagery"
	"lst-tools/render"
)

// BandAlpha is the description of the alpha band of an RGBA export.
const BandAlpha = "alpha"

// WriteGeoTIFF writes img in EPSG:4326. A visualized image is written as an
// 8-bit RGBA raster with no-data pixels transparent. Any other image is
// written band by band as Float64, in band name order, with no-data as NaN.
// Band names are stored as band descriptions so the file reads back through
// catalog.ReadScene.
func WriteGeoTIFF(img *imagery.Image, path string) (err error) {
	logrus.Debug("Entered WriteGeoTIFF")
	names := img.BandNames()
	if len(names) == 0 {
		return fmt.Errorf("image %s has no bands", img.ID)
	}

	visualized := render.IsVisualized(img)
	godal.RegisterAll()
	var ds *godal.Dataset
	if visualized {
		ds, err = godal.Create(godal.GTiff, path, len(render.VisBands)+1, godal.Byte, img.Width, img.Height,
			godal.CreationOption("TILED=YES", "COMPRESS=DEFLATE", "PHOTOMETRIC=RGB", "ALPHA=YES"))
	} else {
		ds, err = godal.Create(godal.GTiff, path, len(names), godal.Float64, img.Width, img.Height,
			godal.CreationOption("TILED=YES", "COMPRESS=DEFLATE"))
	}
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, ds.Close())
	}()

	if err := ds.SetGeoTransform([6]float64(img.Transform)); err != nil {
		return err
	}
	srs, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return err
	}
	defer srs.Close()
	if err := ds.SetSpatialRef(srs); err != nil {
		return err
	}
	if err := ds.SetMetadata(catalog.MetadataSceneID, img.ID); err != nil {
		return err
	}
	if err := ds.SetMetadata(catalog.MetadataAcquired, img.Time.UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if visualized {
		err = writeRGBA(ds, img)
	} else {
		err = writeFloat(ds, img, names)
	}
	logrus.Debug("Exited WriteGeoTIFF")
	return err
}

func writeFloat(ds *godal.Dataset, img *imagery.Image, names []string) error {
	bands := ds.Bands()
	for i, name := range names {
		band := bands[i]
		if err := band.SetDescription(name); err != nil {
			return err
		}
		if err := band.SetNoData(math.NaN()); err != nil {
			return err
		}
		if err := band.Write(0, 0, img.Bands[name].Data, img.Width, img.Height); err != nil {
			return err
		}
	}
	return nil
}

func writeRGBA(ds *godal.Dataset, img *imagery.Image) error {
	n := img.Width * img.Height
	channels := make([][]uint8, 4)
	for i := range channels {
		channels[i] = make([]uint8, n)
	}
	for pix := 0; pix < n; pix++ {
		c := render.ColorOf(img, pix%img.Width, pix/img.Width)
		channels[0][pix], channels[1][pix], channels[2][pix], channels[3][pix] = c.R, c.G, c.B, c.A
	}

	names := append(append([]string(nil), render.VisBands...), BandAlpha)
	interps := []godal.ColorInterp{godal.CIRed, godal.CIGreen, godal.CIBlue, godal.CIAlpha}
	for i, band := range ds.Bands() {
		if err := band.SetDescription(names[i]); err != nil {
			return err
		}
		if err := band.SetColorInterp(interps[i]); err != nil {
			return err
		}
		if err := band.Write(0, 0, channels[i], img.Width, img.Height); err != nil {
			return err
		}
	}
	return nil
}
