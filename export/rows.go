package export

import (
	"github.com/golang/geo/s2"
	"github.com/sirupsen/logrus"

	"lst-tools/geometry"
	"lst-tools/imagery"
)

// PixelRow is one valid pixel of one band in a table export.
type PixelRow struct {
	S2ID  int64   `parquet:"s2_id"`
	Band  string  `parquet:"band"`
	Value float64 `parquet:"value"`
	Lng   float64 `parquet:"lng"`
	Lat   float64 `parquet:"lat"`
	Geom  string  `parquet:"geom"`
}

// streamRows produces the rows of img band by band, in row-major pixel order.
// No-data pixels are skipped. The channel is closed when done is closed or
// every row has been sent.
func streamRows(img *imagery.Image, level int, done <-chan struct{}) <-chan PixelRow {
	logrus.Debug("Entered streamRows")
	rows := make(chan PixelRow, img.Width)
	go func() {
		defer close(rows)
		for _, name := range img.BandNames() {
			band := img.Bands[name]
			for pix, value := range band.Data {
				if imagery.IsNoData(value) {
					continue
				}
				lng, lat := img.Transform.PixelCenter(pix%img.Width, pix/img.Width)
				cell := geometry.CellID(lng, lat, level)
				row := PixelRow{
					S2ID:  int64(cell),
					Band:  name,
					Value: value,
					Lng:   lng,
					Lat:   lat,
					Geom:  geometry.CellToWKT(s2.CellFromCellID(cell)),
				}
				select {
				case rows <- row:
				case <-done:
					return
				}
			}
		}
	}()
	return rows
}
