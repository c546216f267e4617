package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgpipe/internal/hasher"
)

func sample(t *testing.T, dir string) *Manifest {
	t.Helper()
	payload := []byte("not really a jpeg, but bytes are bytes")
	rel := "photos/cat.320.240." + hasher.ContentHash(payload, 16)[:8] + ".jpg"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "photos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), payload, 0o644))

	m := New("web")
	m.BuildInfo = &BuildInfo{Workers: 4, Encoders: []string{"jpeg", "png"}}
	m.Assets["photos/cat"] = Asset{
		Original:    OriginalInfo{Width: 800, Height: 600, Format: "jp2", Size: 100000},
		AspectRatio: 800.0 / 600.0,
		Variants: []Variant{{
			Format:   "jpeg",
			Width:    320,
			Height:   240,
			Channels: 3,
			Size:     int64(len(payload)),
			Hash:     hasher.ContentHash(payload, 16),
			Path:     rel,
			Strategy: "oneshot",
		}},
	}
	return m
}

func TestManifestRoundtrip(t *testing.T) {
	dir := t.TempDir()
	m := sample(t, dir)
	m.Stats.SkippedRegress = 2
	require.NoError(t, WriteJSON(m, filepath.Join(dir, FileName)))

	m2, path, err := Read(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)
	assert.Equal(t, SupportedManifestVersion, m2.Version)
	assert.Equal(t, "web", m2.Preset)
	require.NotNil(t, m2.BuildInfo)
	assert.Equal(t, 4, m2.BuildInfo.Workers)
	assert.Equal(t, []string{"jpeg", "png"}, m2.BuildInfo.Encoders)

	a, ok := m2.Assets["photos/cat"]
	require.True(t, ok)
	require.Len(t, a.Variants, 1)
	assert.Equal(t, "oneshot", a.Variants[0].Strategy)
	assert.Equal(t, 3, a.Variants[0].Channels)

	assert.Equal(t, 1, m2.Stats.TotalAssets)
	assert.Equal(t, 1, m2.Stats.TotalVariants)
	assert.Equal(t, int64(100000), m2.Stats.TotalInputBytes)
	assert.Equal(t, a.Variants[0].Size, m2.Stats.TotalOutputBytes)
	assert.Equal(t, 2, m2.Stats.SkippedRegress)
}

func TestReadMissing(t *testing.T) {
	_, _, err := Read(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "read manifest")
}

func TestCheckClean(t *testing.T) {
	dir := t.TempDir()
	m := sample(t, dir)
	m.ComputeStats()
	assert.Empty(t, Check(m, dir))
}

func TestCheckDetectsProblems(t *testing.T) {
	dir := t.TempDir()
	m := sample(t, dir)
	m.ComputeStats()

	a := m.Assets["photos/cat"]
	v := a.Variants[0]
	require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(v.Path)),
		[]byte("tampered, and of a different length"), 0o644))
	a.Variants = append(a.Variants,
		Variant{Format: "png", Width: 0, Height: 10, Path: "photos/flat.png"},
		Variant{Format: "png", Width: 10, Height: 10, Path: "photos/gone.png"},
		Variant{Format: "png", Width: 10, Height: 10, Path: "photos/gone.png"},
	)
	m.Assets["photos/cat"] = a

	errs := Check(m, dir)
	require.Len(t, errs, 5)
	assert.Contains(t, errs[0], "variant[0]: size mismatch")
	assert.Contains(t, errs[1], "variant[1]: invalid dimensions 0x10")
	assert.Contains(t, errs[2], "variant[2]: file not found: photos/gone.png")
	assert.Contains(t, errs[3], `variant[3]: duplicate path "photos/gone.png"`)
	assert.Contains(t, errs[4], "stats.total_variants mismatch: 1 != 4")
}

func TestCheckHashMismatch(t *testing.T) {
	dir := t.TempDir()
	m := sample(t, dir)
	m.ComputeStats()
	a := m.Assets["photos/cat"]
	a.Variants[0].Hash = "0000000000000000"
	m.Assets["photos/cat"] = a

	errs := Check(m, dir)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "hash mismatch")
}

func TestCheckVersion(t *testing.T) {
	m := New("web")
	m.Version = 99
	assert.Equal(t, []string{"unsupported manifest version: 99"}, Check(m, t.TempDir()))
}

func TestComputeStatsCountsFailures(t *testing.T) {
	m := New("web")
	m.Failures = map[string]string{"a": "boom", "b": "bang"}
	m.ComputeStats()
	assert.Equal(t, 2, m.Stats.TotalFailures)
	assert.Equal(t, []string{}, m.Keys())
}
