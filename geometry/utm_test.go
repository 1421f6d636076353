package geometry

import (
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAreaSquareMeters(t *testing.T) {
	godal.RegisterAll()

	// 0.01 x 0.01 degrees at the equator is about 1.11km x 1.11km.
	area, err := AreaSquareMeters(BBox{West: 3, South: 0, East: 3.01, North: 0.01})
	require.NoError(t, err)
	assert.InDelta(t, 1.2364e6, area, 0.02*1.2364e6)
}
