package decode

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/jp2"
	"github.com/AnyUserName/imgpipe/internal/jp2/jp2test"
)

func TestResolveDefaultOnSegmentedFails(t *testing.T) {
	data := jp2test.File(jp2test.Codestream(320, 240, 160, 120, 2))
	res, err := NewSelector().Resolve(format.JP2, data, Default)

	var mismatch *StructuralMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 8, mismatch.Parts)
	assert.Equal(t, 4, mismatch.Tiles)
	assert.Equal(t, "jp2 input is split into 8 tile-parts over 4 tiles; decode with jp2.oneshot", err.Error())
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, DefaultPath, res.Path)
}

func TestResolveOneshotOnSegmented(t *testing.T) {
	data := jp2test.File(jp2test.Codestream(320, 240, 160, 120, 2))
	res, err := NewSelector().Resolve(format.JP2, data, Oneshot)
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.State)
	assert.Equal(t, OneshotPath, res.Path)
	assert.True(t, res.Inspected)
	assert.Equal(t, 320, res.Layout.Width)
	assert.Equal(t, 240, res.Layout.Height)
}

func TestResolveDefaultOnCoherentInput(t *testing.T) {
	data := jp2test.File(jp2test.Codestream(320, 240, 320, 240, 1))
	res, err := NewSelector().Resolve(format.JP2, data, Default)
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.State)
	assert.Equal(t, Default, res.Strategy)
}

func TestResolveOneshotIsNeverDowngraded(t *testing.T) {
	data := jp2test.File(jp2test.Codestream(64, 64, 64, 64, 1))
	res, err := NewSelector().Resolve(format.JP2, data, Oneshot)
	require.NoError(t, err)
	assert.Equal(t, Oneshot, res.Strategy)
	assert.Equal(t, OneshotPath, res.Path)
}

func TestResolveWithoutInspector(t *testing.T) {
	res, err := NewSelector().Resolve(format.PNG, []byte("whatever"), Default)
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.State)
	assert.False(t, res.Inspected)
}

func TestResolveInspectorError(t *testing.T) {
	res, err := NewSelector().Resolve(format.JP2, []byte("garbage"), Oneshot)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jp2.ErrNotJP2))
	assert.Equal(t, Failed, res.State)
}

func TestRegisterCustomInspector(t *testing.T) {
	s := NewSelector()
	s.Register(format.TIFF, func([]byte) (Layout, error) {
		return Layout{Parts: 4, Tiles: 1, Segmented: true}, nil
	})
	_, err := s.Resolve(format.TIFF, nil, Default)
	var mismatch *StructuralMismatchError
	assert.True(t, errors.As(err, &mismatch))
}
