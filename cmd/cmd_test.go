package cmd

import (
	"bytes"
	"encoding/json"
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
	"github.com/AnyUserName/imgpipe/internal/pipeline"
)

func TestParsePairs(t *testing.T) {
	raw, err := parsePairs([]string{
		"quality=70",
		"lossless=true",
		"sigma=1.5",
		"chromaSubsampling=4:2:0",
		"background=#ff0000",
		"jp2.oneshot=fail",
	})
	require.NoError(t, err)
	assert.Equal(t, options.Raw{
		"quality":           70,
		"lossless":          true,
		"sigma":             1.5,
		"chromaSubsampling": "4:2:0",
		"background":        "#ff0000",
		"jp2.oneshot":       "fail",
	}, raw)

	_, err = parsePairs([]string{"quality"})
	assert.EqualError(t, err, `option "quality" is not of the form key=value`)
}

func TestParsedPairsValidate(t *testing.T) {
	raw, err := parsePairs([]string{"jp2.oneshot=fail"})
	require.NoError(t, err)
	_, err = options.Validate(options.OwnerInput, raw)
	assert.EqualError(t, err, "Expected boolean for jp2.oneshot but received fail of type string")
}

func TestParseBox(t *testing.T) {
	for in, want := range map[string][2]int{
		"800x600": {800, 600},
		"800x":    {800, 0},
		"x600":    {0, 600},
		"320":     {320, 0},
		"64X48":   {64, 48},
	} {
		w, h, err := parseBox(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, [2]int{w, h}, in)
	}
	_, _, err := parseBox("wide")
	assert.Error(t, err)
}

func TestReadOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"input":{"jp2":{"oneshot":true}},"output":{"quality":70}}`), 0o644))
	fo, err := readOptionsFile(path)
	require.NoError(t, err)

	set, err := options.Validate(options.OwnerInput, fo.Input)
	require.NoError(t, err)
	assert.True(t, set.Bool(options.JP2Oneshot))
	set, err = options.Validate("jpeg", fo.Output)
	require.NoError(t, err)
	assert.Equal(t, 70, set.Int("quality"))
}

func TestPrintFormats(t *testing.T) {
	var buf bytes.Buffer
	printFormats(&buf, newProcessor().Capabilities())
	out := buf.String()
	assert.Contains(t, out, "FORMAT")
	assert.Regexp(t, `(?m)^\s+png\s+yes\s+yes`, out)
	assert.Regexp(t, `(?m)^\s+jp2\s+`, out)
}

func TestPrintResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, pipeline.Metadata{Format: "jpeg", Width: 2, Height: 1, Channels: 3}, true))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "jpeg", got["format"])
	assert.EqualValues(t, 3, got["channels"])
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 9), B: 128, A: 255})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// The commands below share package-level flag state, so they run as one
// sequence.
func TestCommands(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "src", "photo.png")
	writeTestPNG(t, in, 80, 60)

	t.Run("convert", func(t *testing.T) {
		out := filepath.Join(dir, "photo.jpg")
		var stdout bytes.Buffer
		rootCmd.SetOut(&stdout)
		rootCmd.SetArgs([]string{"convert", in, out, "--resize", "40x", "-q", "70", "--json"})
		require.NoError(t, rootCmd.Execute())

		var meta pipeline.Metadata
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &meta))
		assert.Equal(t, "jpeg", string(meta.Format))
		assert.Equal(t, 40, meta.Width)
		assert.Equal(t, 30, meta.Height)
		assert.FileExists(t, out)
	})

	t.Run("batch and report", func(t *testing.T) {
		outDir := filepath.Join(dir, "out")
		var stdout bytes.Buffer
		rootCmd.SetOut(&stdout)
		rootCmd.SetArgs([]string{"batch", filepath.Join(dir, "src"), "-o", outDir,
			"--preset", "thumbnail", "--widths", "20,40", "--no-regress-size=false"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, stdout.String(), "Variants:    2")

		m, _, err := manifest.Read(outDir)
		require.NoError(t, err)
		assert.Equal(t, "thumbnail", m.Preset)
		assert.Len(t, m.Assets["photo"].Variants, 2)

		stdout.Reset()
		rootCmd.SetArgs([]string{"report", outDir, "--check"})
		require.NoError(t, rootCmd.Execute())
		assert.Contains(t, stdout.String(), "all files present")
	})
}
