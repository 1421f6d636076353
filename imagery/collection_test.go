package imagery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doubleBands(img *Image) (*Image, error) {
	bands := map[string]*Band{}
	for name, b := range img.Bands {
		bands[name] = b.Apply(func(v float64) float64 { return v * 2 })
	}
	return img.WithBands(bands)
}

func TestMapPreservesOrderAndInput(t *testing.T) {
	var c Collection
	for i := 0; i < 25; i++ {
		v := float64(i)
		c = append(c, newTestImage(t, fmt.Sprintf("img-%02d", i), 1, map[string][]float64{"b": {v, v, v, v}}))
	}

	out, err := Map(context.Background(), c, doubleBands, 4)
	require.NoError(t, err)
	require.Len(t, out, len(c))
	for i := range c {
		assert.Equal(t, c[i].ID, out[i].ID)
		assert.Equal(t, float64(i), c[i].Bands["b"].Data[0], "input mutated")
		assert.Equal(t, float64(2*i), out[i].Bands["b"].Data[0])
	}
}

func TestMapReturnsTransformError(t *testing.T) {
	c := Collection{
		newTestImage(t, "a", 1, nil),
		newTestImage(t, "b", 2, nil),
	}
	boom := errors.New("boom")
	_, err := Map(context.Background(), c, func(img *Image) (*Image, error) {
		if img.ID == "b" {
			return nil, boom
		}
		return img, nil
	}, 2)
	assert.ErrorIs(t, err, boom)
}

func TestMapCancelled(t *testing.T) {
	c := Collection{newTestImage(t, "a", 1, nil)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The job may still be handed out before the cancellation is observed, but
	// a cancelled context must never yield a partial collection.
	out, err := Map(ctx, c, func(img *Image) (*Image, error) { return img, nil }, 1)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, out)
	}
}

func TestMapEmpty(t *testing.T) {
	out, err := Map(context.Background(), nil, doubleBands, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSorted(t *testing.T) {
	c := Collection{
		newTestImage(t, "late", 3, nil),
		newTestImage(t, "b", 1, nil),
		newTestImage(t, "a", 1, nil),
	}
	sorted := c.Sorted()
	assert.Equal(t, "a", sorted[0].ID)
	assert.Equal(t, "b", sorted[1].ID)
	assert.Equal(t, "late", sorted[2].ID)
	assert.Equal(t, "late", c[0].ID)
}
