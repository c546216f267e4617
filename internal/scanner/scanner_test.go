package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgpipe/internal/format"
)

func TestScan(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"banner.jpg":        "x",
		"cards/card-1.png":  "xx",
		"maps/scan.j2k":     "xxx",
		"notes.txt":         "skip",
		"weird.failj2c":     "skip",
		".cache/hidden.png": "skip",
		"cards/.keep":       "",
	}
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	sources, err := Scan(dir)
	require.NoError(t, err)

	var keys []string
	for _, s := range sources {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"banner", "cards/card-1", "maps/scan"}, keys)
	assert.Equal(t, format.JPEG, sources[0].Format)
	assert.Equal(t, format.JP2, sources[2].Format)
	assert.Equal(t, int64(3), sources[2].Size)
	assert.Equal(t, "cards/card-1.png", sources[1].RelPath)
}

func TestScanMissingDir(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
