package colors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexParsesWithAndWithoutAlpha(t *testing.T) {
	c, err := Hex("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, Red, c)

	c, err = Hex("#00ff0080")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c[1], 1e-6)
	assert.InDelta(t, 128.0/255.0, c[3], 1e-6)

	_, err = Hex("nope")
	assert.Error(t, err)
}

func TestHexRoundTripThroughText(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalText([]byte("#336699cc")))
	out, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#336699cc", string(out))
}

func TestLerpEndpoints(t *testing.T) {
	assert.Equal(t, Black, Lerp(Black, White, 0))
	mid := Lerp(Black.WithAlpha(0), White, 0.5)
	assert.InDelta(t, 0.5, mid[3], 1e-6)
	// Half way in linear light is about 0.735 in sRGB.
	assert.InDelta(t, 0.735, mid[0], 1e-3)
	assert.InDelta(t, mid[0], mid[2], 1e-6)

	end := Lerp(Bull, Bear, 1)
	assert.InDeltaSlice(t, Bear[:], end[:], 1e-5)
}
