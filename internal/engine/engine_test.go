package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os/exec"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

func noisy(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 0xff
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func outputSet(t *testing.T, f format.Format, raw options.Raw) options.Set {
	t.Helper()
	set, err := options.Validate(string(f), raw)
	require.NoError(t, err)
	return set
}

func TestProbeNativeCodecs(t *testing.T) {
	e := New()
	byFormat := map[format.Format]bool{}
	for _, rec := range e.Probe() {
		byFormat[rec.Format] = true
		switch rec.Format {
		case format.JPEG, format.PNG, format.GIF, format.BMP, format.TIFF:
			assert.True(t, rec.Input, rec.Format)
			assert.True(t, rec.Output, rec.Format)
		case format.WebP:
			assert.True(t, rec.Input)
		}
	}
	for _, f := range format.All {
		assert.True(t, byFormat[f], "missing record for %s", f)
	}
}

func TestProbeMissingTool(t *testing.T) {
	if _, err := exec.LookPath("opj_compress"); err == nil {
		t.Skip("opj_compress is installed")
	}
	ok, reason := NewJP2Codec().CanEncode()
	assert.False(t, ok)
	assert.Equal(t, "JP2 output requires opj_compress (OpenJPEG) on PATH", reason)
}

func TestWithoutCodec(t *testing.T) {
	e := New(WithoutCodec(format.GIF))
	_, ok := e.Codec(format.GIF)
	assert.False(t, ok)
	for _, rec := range e.Probe() {
		assert.NotEqual(t, format.GIF, rec.Format)
	}
}

type stubCodec struct {
	nativeCodec
	encoded int
}

func (s *stubCodec) Encode(context.Context, image.Image, options.Set) ([]byte, error) {
	s.encoded++
	return []byte("stub"), nil
}

func TestWithCodecReplacesBuiltin(t *testing.T) {
	stub := &stubCodec{nativeCodec: nativeCodec{format: format.JP2}}
	e := New(WithCodec(stub))

	out, err := e.Encode(context.Background(), format.JP2, noisy(4, 4), options.Set{})
	require.NoError(t, err)
	assert.Equal(t, []byte("stub"), out)
	assert.Equal(t, 1, stub.encoded)
}

func TestDecodePixelLimit(t *testing.T) {
	data := encodePNG(t, noisy(100, 100))
	e := New()

	_, err := e.Decode(context.Background(), format.PNG, data, DecodeOptions{}, 50*50)
	var eerr *EngineError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, ResourceExhausted, eerr.Cause)
	assert.True(t, errors.Is(err, ErrPixelLimit))
	assert.Equal(t, "png decode failed: Input image exceeds pixel limit", err.Error())

	img, err := e.Decode(context.Background(), format.PNG, data, DecodeOptions{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestDecodeCorrupt(t *testing.T) {
	e := New()
	data := encodePNG(t, noisy(32, 32))

	for name, input := range map[string][]byte{
		"garbage":   []byte("this is not an image at all"),
		"truncated": data[:len(data)/2],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := e.Decode(context.Background(), format.PNG, input, DecodeOptions{}, 0)
			var eerr *EngineError
			require.True(t, errors.As(err, &eerr), "got %v", err)
			assert.Equal(t, CorruptData, eerr.Cause)
			assert.Equal(t, "decode", eerr.Op)
		})
	}
}

func TestClassifyToolOutput(t *testing.T) {
	exit := errors.New("exit status 1")
	tests := []struct {
		output string
		cause  Cause
	}{
		{"[ERROR] Failed to decode the codestream in the JP2 file", CorruptData},
		{"Unexpected marker 0xff00 in main header", CorruptData},
		{"[ERROR] Out of memory", ResourceExhausted},
		{"something odd happened", Unknown},
	}
	for _, tt := range tests {
		err := classify("decode", format.JP2, exit, tt.output)
		var eerr *EngineError
		require.True(t, errors.As(err, &eerr))
		assert.Equal(t, tt.cause, eerr.Cause, tt.output)
		assert.Equal(t, tt.output, eerr.Detail)
	}

	assert.Equal(t, context.Canceled, classify("encode", format.JP2, context.Canceled, ""))
	assert.Nil(t, classify("encode", format.JP2, nil, ""))
}

func TestJPEGQualityShrinksOutput(t *testing.T) {
	img := noisy(128, 128)
	e := New()
	ctx := context.Background()

	def, err := e.Encode(ctx, format.JPEG, img, outputSet(t, format.JPEG, nil))
	require.NoError(t, err)
	q70, err := e.Encode(ctx, format.JPEG, img, outputSet(t, format.JPEG, options.Raw{"quality": 70}))
	require.NoError(t, err)
	assert.Less(t, len(q70), len(def))
}

func TestNativeRoundTrip(t *testing.T) {
	img := noisy(24, 16)
	e := New()
	ctx := context.Background()
	for _, f := range []format.Format{format.JPEG, format.PNG, format.GIF, format.BMP, format.TIFF} {
		t.Run(string(f), func(t *testing.T) {
			out, err := e.Encode(ctx, f, img, outputSet(t, f, nil))
			require.NoError(t, err)
			assert.Equal(t, f, format.Sniff(out))

			back, err := e.Decode(ctx, f, out, DecodeOptions{}, options.DefaultPixelLimit)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 24, 16), back.Bounds())
		})
	}
}

func TestTIFFDeflate(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	e := New()
	ctx := context.Background()
	plain, err := e.Encode(ctx, format.TIFF, img, outputSet(t, format.TIFF, nil))
	require.NoError(t, err)
	deflated, err := e.Encode(ctx, format.TIFF, img, outputSet(t, format.TIFF, options.Raw{"compression": "deflate", "predictor": "horizontal"}))
	require.NoError(t, err)
	assert.Less(t, len(deflated), len(plain))
}

func TestCompressionLevel(t *testing.T) {
	assert.Equal(t, png.NoCompression, compressionLevel(0))
	assert.Equal(t, png.BestSpeed, compressionLevel(2))
	assert.Equal(t, png.DefaultCompression, compressionLevel(6))
	assert.Equal(t, png.BestCompression, compressionLevel(9))
}

func TestCompressionRatio(t *testing.T) {
	assert.Equal(t, 1.0, compressionRatio(100))
	assert.Equal(t, 6.0, compressionRatio(80))
	assert.Greater(t, compressionRatio(70), compressionRatio(80))
}

func TestJP2RoundTrip(t *testing.T) {
	c := NewJP2Codec()
	if ok, _ := c.CanEncode(); !ok {
		t.Skip("OpenJPEG tools not installed")
	}
	if ok, _ := c.CanDecode(); !ok {
		t.Skip("OpenJPEG tools not installed")
	}
	ctx := context.Background()
	out, err := c.Encode(ctx, noisy(40, 30), outputSet(t, format.JP2, options.Raw{"tileWidth": 16, "tileHeight": 16}))
	require.NoError(t, err)
	assert.Equal(t, format.JP2, format.Sniff(out))

	w, h, err := c.Size(out)
	require.NoError(t, err)
	assert.Equal(t, []int{40, 30}, []int{w, h})

	img, err := c.Decode(ctx, out, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
}

func TestChannels(t *testing.T) {
	opaque := noisy(4, 4)
	assert.Equal(t, 3, Channels(opaque, true))

	clear := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	assert.Equal(t, 4, Channels(clear, true))
	assert.Equal(t, 3, Channels(clear, false))

	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	assert.Equal(t, 1, Channels(gray, true))

	assert.True(t, Opaque(image.NewUniform(color.White)))
}
