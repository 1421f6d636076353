package imagery

import (
	"errors"
	"sort"

	"github.com/sirupsen/logrus"
)

var (
	ErrGridMismatch    = errors.New("images do not share a grid")
	ErrEmptyCollection = errors.New("collection is empty")
)

// AggFunc collapses the valid values of one pixel into a single value. It is
// never called with an empty slice.
type AggFunc func(...float64) float64

func Mean(inData ...float64) float64 {
	sum := Sum(inData...)
	return sum / float64(len(inData))
}

func Sum(inData ...float64) float64 {
	var sum float64
	for _, val := range inData {
		sum += val
	}
	return sum
}

func Max(inData ...float64) float64 {
	max := inData[0]
	for _, val := range inData[1:] {
		if val > max {
			max = val
		}
	}
	return max
}

func Min(inData ...float64) float64 {
	min := inData[0]
	for _, val := range inData[1:] {
		if val < min {
			min = val
		}
	}
	return min
}

var reducers = map[string]AggFunc{
	"mean": Mean,
	"sum":  Sum,
	"max":  Max,
	"min":  Min,
}

// Reducer looks up an aggregation by name.
func Reducer(name string) (AggFunc, bool) {
	fn, ok := reducers[name]
	return fn, ok
}

func ReducerNames() []string {
	names := make([]string, 0, len(reducers))
	for name := range reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reduce builds a composite: for every band present in any member and every
// pixel, the valid (non no-data) values across members are aggregated. A pixel
// without valid values stays no-data. Values are sorted before aggregation, so
// the result does not depend on member order. Members on different grids, such
// as scenes of adjacent paths, are first resampled onto one grid covering all
// of them.
func Reduce(c Collection, id string, agg AggFunc) (*Image, error) {
	logrus.Debug("Entered Reduce")
	if len(c) == 0 {
		return nil, ErrEmptyCollection
	}
	for _, img := range c[1:] {
		if !img.SameGrid(c[0]) {
			c = mosaic(c)
			break
		}
	}
	first := c[0]

	bandNames := map[string]struct{}{}
	for _, img := range c {
		for name := range img.Bands {
			bandNames[name] = struct{}{}
		}
	}

	out := NewImage(id, first.Time, first.Transform, first.Width, first.Height)
	values := make([]float64, 0, len(c))
	for name := range bandNames {
		members := make([]*Band, 0, len(c))
		for _, img := range c {
			if b, ok := img.Bands[name]; ok {
				members = append(members, b)
			}
		}

		composite := NewBand(first.Width, first.Height)
		for pix := range composite.Data {
			values = values[:0]
			for _, b := range members {
				if v := b.Data[pix]; !IsNoData(v) {
					values = append(values, v)
				}
			}
			if len(values) == 0 {
				continue
			}
			sort.Float64s(values)
			composite.Data[pix] = agg(values...)
		}
		out.Bands[name] = composite
	}
	logrus.Debug("Exited Reduce")
	return out, nil
}

// mosaic resamples every member onto the grid covering the whole collection.
func mosaic(c Collection) Collection {
	gt, width, height := mosaicGrid(c)
	logrus.Debugf("Resampling %d images onto a %dx%d mosaic grid", len(c), width, height)
	out := make(Collection, len(c))
	for i, img := range c {
		if img.Transform == gt && img.Width == width && img.Height == height {
			out[i] = img
			continue
		}
		out[i] = resampleOnto(img, gt, width, height)
	}
	return out
}
