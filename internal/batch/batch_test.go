package batch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgpipe/internal/manifest"
	"github.com/AnyUserName/imgpipe/internal/options"
	"github.com/AnyUserName/imgpipe/internal/profile"
)

func writePNG(t *testing.T, path string, w, h int, solid bool) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 200, G: 30, B: 90, A: 255}
			if !solid {
				c = color.NRGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8((x ^ y) * 3), A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	require.NoError(t, enc.Encode(f, img))
}

func TestRunProducesVariants(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"), 64, 48, false)
	writePNG(t, filepath.Join(in, "nested", "b.png"), 40, 40, false)
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.png"), []byte("garbage"), 0o644))

	m, err := New(Config{
		InputDir:  in,
		OutputDir: out,
		Workers:   2,
		Profile: profile.Profile{
			Name:    "test",
			Format:  "jpeg",
			Options: options.Raw{"quality": 75},
			Fit:     "inside",
			Widths:  []int{16, 32},
		},
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test", m.Preset)
	assert.Equal(t, []string{"a", "nested/b"}, m.Keys())
	require.Contains(t, m.Failures, "broken")
	assert.Contains(t, m.Failures["broken"], "unsupported image format")

	a := m.Assets["a"]
	assert.Equal(t, "png", a.Original.Format)
	require.Len(t, a.Variants, 2)
	assert.Equal(t, 16, a.Variants[0].Width)
	assert.Equal(t, 12, a.Variants[0].Height)
	assert.Equal(t, 32, a.Variants[1].Width)
	assert.Equal(t, 24, a.Variants[1].Height)
	for _, v := range a.Variants {
		assert.Equal(t, "jpeg", v.Format)
		assert.Equal(t, 3, v.Channels)
		assert.Regexp(t, `^a\.\d+\.\d+\.[0-9a-f]{8}\.jpg$`, v.Path)
	}
	assert.Regexp(t, `^nested/b\.16\.16\.[0-9a-f]{8}\.jpg$`, m.Assets["nested/b"].Variants[0].Path)

	assert.Equal(t, 2, m.Stats.TotalAssets)
	assert.Equal(t, 4, m.Stats.TotalVariants)
	assert.Equal(t, 1, m.Stats.TotalFailures)
	assert.Empty(t, manifest.Check(m, out))
}

func TestRunSkipsRegressions(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writePNG(t, filepath.Join(in, "flat.png"), 64, 64, true)

	m, err := New(Config{
		InputDir:      in,
		OutputDir:     out,
		NoRegressSize: true,
		Profile:       profile.Profile{Name: "bmp", Format: "bmp"},
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Assets["flat"].Variants)
	assert.Equal(t, 1, m.Stats.SkippedRegress)
}

func TestRunAllFailed(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "x.png"), []byte("nope"), 0o644))
	_, err := New(Config{InputDir: in, OutputDir: t.TempDir()}).Run(context.Background())
	assert.EqualError(t, err, "all 1 images failed to process")
}

func TestRunEmptyDir(t *testing.T) {
	_, err := New(Config{InputDir: t.TempDir(), OutputDir: t.TempDir()}).Run(context.Background())
	assert.ErrorContains(t, err, "no images found")
}

func TestRunCancelled(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"), 8, 8, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{InputDir: in, OutputDir: t.TempDir()}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
