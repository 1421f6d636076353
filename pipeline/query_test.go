package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lst-tools/geometry"
)

var (
	northampton = geometry.Point{Lng: -72.63042, Lat: 42.32882}
	july1       = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	july4       = time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)
)

func TestQueryRejectsBadRange(t *testing.T) {
	_, err := Query("LANDSAT/LC09/C02/T1_L2", july4, july1, northampton)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Query("LANDSAT/LC09/C02/T1_L2", july1, july1, northampton)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestQueryRejectsBadFilter(t *testing.T) {
	_, err := Query("LANDSAT/LC09/C02/T1_L2", july1, july4, nil)
	assert.ErrorIs(t, err, geometry.ErrInvalidGeometry)

	_, err = Query("LANDSAT/LC09/C02/T1_L2", july1, july4, geometry.Point{Lng: 200, Lat: 0})
	assert.ErrorIs(t, err, geometry.ErrInvalidGeometry)

	_, err = Query(" ", july1, july4, northampton)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestQueryRangeIsHalfOpen(t *testing.T) {
	coll, err := Query("LANDSAT/LC09/C02/T1_L2", july1, july4, northampton)
	require.NoError(t, err)
	q := *coll.Node().Query

	assert.True(t, q.InRange(july1))
	assert.True(t, q.InRange(july4.Add(-time.Nanosecond)))
	assert.False(t, q.InRange(july4))
	assert.False(t, q.InRange(july1.Add(-time.Second)))

	g, err := q.Geometry()
	require.NoError(t, err)
	assert.Equal(t, northampton, g)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-07-01", july1},
		{"2024-07-04T00:00:00Z", july4},
		{"2024-07-02T12:30:00", time.Date(2024, 7, 2, 12, 30, 0, 0, time.UTC)},
		{"2024-07-02 12:30:00", time.Date(2024, 7, 2, 12, 30, 0, 0, time.UTC)},
		{"2024-07-02T08:30:00-04:00", time.Date(2024, 7, 2, 12, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), "%s parsed as %s", tt.in, got)
	}

	_, err := ParseDate("July 1st")
	assert.ErrorIs(t, err, ErrInvalidRange)
}
