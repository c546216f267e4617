package engine

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// JPEGCodec reads and writes JPEG using Go's standard library. Decoding can
// apply the EXIF orientation tag.
type JPEGCodec struct{}

func (c *JPEGCodec) Format() format.Format     { return format.JPEG }
func (c *JPEGCodec) CanDecode() (bool, string) { return true, "" }
func (c *JPEGCodec) CanEncode() (bool, string) { return true, "" }

func (c *JPEGCodec) Decode(_ context.Context, data []byte, opts DecodeOptions) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(opts.AutoOrient))
}

func (c *JPEGCodec) Size(data []byte) (int, int, error) {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	return cfg.Width, cfg.Height, err
}

func (c *JPEGCodec) Encode(_ context.Context, img image.Image, opts options.Set) ([]byte, error) {
	quality := opts.Int("quality")
	if quality <= 0 || quality > 100 {
		quality = 80
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024) // typical photo

	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
