package export

import (
	"errors"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"

	"lst-tools/imagery"
)

// rowBufferSize is the number of rows buffered between flushes to disk.
const rowBufferSize = 1 << 14

// WriteParquet writes one row per valid pixel per band, snappy compressed.
func WriteParquet(img *imagery.Image, path string, level int) (err error) {
	output, err := os.Create(path)
	if err != nil {
		return err
	}

	schema := parquet.SchemaOf(new(PixelRow))
	writer := parquet.NewGenericWriter[PixelRow](output, schema, parquet.Compression(&parquet.Snappy))
	defer func() {
		err = errors.Join(err, writer.Close(), output.Close())
	}()

	done := make(chan struct{})
	defer close(done)

	rowBuf := make([]PixelRow, 0, rowBufferSize)
	var written int
	for row := range streamRows(img, level, done) {
		rowBuf = append(rowBuf, row)
		if len(rowBuf) < rowBufferSize {
			continue
		}
		if err := flushRows(writer, rowBuf); err != nil {
			return err
		}
		written += len(rowBuf)
		logrus.Infof("Wrote %d rows", written)
		rowBuf = rowBuf[:0]
	}
	if len(rowBuf) > 0 {
		if err := flushRows(writer, rowBuf); err != nil {
			return err
		}
	}
	return nil
}

func flushRows(writer *parquet.GenericWriter[PixelRow], rows []PixelRow) error {
	if _, err := writer.Write(rows); err != nil {
		return err
	}
	return writer.Flush()
}
