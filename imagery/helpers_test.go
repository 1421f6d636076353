package imagery

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testGrid = GeoTransform{0, 1, 0, 2, 0, -1}

// newTestImage builds a 2x2 image covering lng 0..2, lat 0..2.
func newTestImage(t testing.TB, id string, day int, bands map[string][]float64) *Image {
	t.Helper()
	img := NewImage(id, time.Date(2024, 7, day, 15, 0, 0, 0, time.UTC), testGrid, 2, 2)
	for name, values := range bands {
		b, err := NewBandFrom(2, 2, values)
		require.NoError(t, err)
		img.Bands[name] = b
	}
	return img
}

// sameValues compares band data treating NaN as equal to NaN.
func sameValues(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
