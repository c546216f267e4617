package engine

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// PNGCodec reads and writes PNG using Go's standard library.
type PNGCodec struct{}

func (c *PNGCodec) Format() format.Format     { return format.PNG }
func (c *PNGCodec) CanDecode() (bool, string) { return true, "" }
func (c *PNGCodec) CanEncode() (bool, string) { return true, "" }

func (c *PNGCodec) Decode(_ context.Context, data []byte, _ DecodeOptions) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

func (c *PNGCodec) Size(data []byte) (int, int, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	return cfg.Width, cfg.Height, err
}

func (c *PNGCodec) Encode(_ context.Context, img image.Image, opts options.Set) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024)

	enc := &png.Encoder{CompressionLevel: compressionLevel(opts.Int("compressionLevel"))}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compressionLevel folds the zlib-style 0..9 scale onto the four levels
// image/png offers.
func compressionLevel(level int) png.CompressionLevel {
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
