package jp2

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgpipe/internal/jp2/jp2test"
)

func TestInspectSinglePartTiles(t *testing.T) {
	data := jp2test.File(jp2test.Codestream(640, 480, 256, 256, 1))
	l, err := Inspect(data)
	require.NoError(t, err)

	assert.Equal(t, 640, l.Width)
	assert.Equal(t, 480, l.Height)
	assert.Equal(t, 3, l.Components)
	assert.Equal(t, 3, l.TilesX)
	assert.Equal(t, 2, l.TilesY)
	assert.Equal(t, 6, l.Tiles())
	assert.Equal(t, 6, l.TileParts)
	assert.Equal(t, 1, l.MaxPartsPerTile())
	assert.False(t, l.Segmented())
}

func TestInspectMultiPartTiles(t *testing.T) {
	data := jp2test.File(jp2test.Codestream(640, 480, 320, 240, 3))
	l, err := Inspect(data)
	require.NoError(t, err)

	assert.Equal(t, 4, l.Tiles())
	assert.Equal(t, 12, l.TileParts)
	assert.Equal(t, 3, l.MaxPartsPerTile())
	assert.True(t, l.Segmented())
}

func TestInspectRawCodestream(t *testing.T) {
	l, err := Inspect(jp2test.Codestream(100, 50, 100, 50, 2))
	require.NoError(t, err)
	assert.Equal(t, 100, l.Width)
	assert.Equal(t, 50, l.Height)
	assert.True(t, l.Segmented())
}

func TestInspectRejectsOtherFormats(t *testing.T) {
	_, err := Inspect([]byte("\x89PNG\r\n\x1a\n"))
	assert.True(t, errors.Is(err, ErrNotJP2))
}

func TestInspectTruncated(t *testing.T) {
	cs := jp2test.Codestream(64, 64, 64, 64, 1)
	_, err := Inspect(cs[:20])
	assert.True(t, errors.Is(err, ErrTruncated))

	file := jp2test.File(cs)
	_, err = Inspect(file[:len(file)-10])
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestCodestreamExtractsJP2C(t *testing.T) {
	cs := jp2test.Codestream(32, 32, 32, 32, 1)
	got, err := Codestream(jp2test.File(cs))
	require.NoError(t, err)
	assert.Equal(t, cs, got)
}
