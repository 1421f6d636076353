package export

import (
	"encoding/csv"
	"errors"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"lst-tools/imagery"
)

var csvHeader = []string{"s2_id", "band", "value", "lng", "lat", "geom"}

// WriteCSV writes one line per valid pixel per band.
func WriteCSV(img *imagery.Image, path string, level int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	done := make(chan struct{})
	defer close(done)

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	var i int
	for row := range streamRows(img, level, done) {
		if i%10000 == 0 {
			logrus.Infof("Writing row %d", i)
		}
		record := []string{
			strconv.FormatInt(row.S2ID, 10),
			row.Band,
			strconv.FormatFloat(row.Value, 'g', -1, 64),
			strconv.FormatFloat(row.Lng, 'g', -1, 64),
			strconv.FormatFloat(row.Lat, 'g', -1, 64),
			row.Geom,
		}
		if err := w.Write(record); err != nil {
			return err
		}
		i++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Sync()
}
