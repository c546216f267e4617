package engine

import (
	"bytes"
	"context"
	"image"
	"image/gif"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// nativeCodec adapts a pure-Go decoder/encoder pair.
type nativeCodec struct {
	format format.Format
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
	encode func(io.Writer, image.Image, options.Set) error
}

func (c *nativeCodec) Format() format.Format     { return c.format }
func (c *nativeCodec) CanDecode() (bool, string) { return true, "" }
func (c *nativeCodec) CanEncode() (bool, string) { return true, "" }

func (c *nativeCodec) Decode(_ context.Context, data []byte, _ DecodeOptions) (image.Image, error) {
	return c.decode(bytes.NewReader(data))
}

func (c *nativeCodec) Size(data []byte) (int, int, error) {
	cfg, err := c.config(bytes.NewReader(data))
	return cfg.Width, cfg.Height, err
}

func (c *nativeCodec) Encode(_ context.Context, img image.Image, opts options.Set) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewGIFCodec returns a codec for the first frame of a GIF.
func NewGIFCodec() Codec {
	return &nativeCodec{
		format: format.GIF,
		decode: gif.Decode,
		config: gif.DecodeConfig,
		encode: func(w io.Writer, img image.Image, opts options.Set) error {
			colors := opts.Int("colors")
			if colors < 2 || colors > 256 {
				colors = 256
			}
			return gif.Encode(w, img, &gif.Options{NumColors: colors})
		},
	}
}

// NewBMPCodec returns an uncompressed BMP codec.
func NewBMPCodec() Codec {
	return &nativeCodec{
		format: format.BMP,
		decode: bmp.Decode,
		config: bmp.DecodeConfig,
		encode: func(w io.Writer, img image.Image, _ options.Set) error {
			return bmp.Encode(w, img)
		},
	}
}

// NewTIFFCodec returns a single-page TIFF codec.
func NewTIFFCodec() Codec {
	return &nativeCodec{
		format: format.TIFF,
		decode: tiff.Decode,
		config: tiff.DecodeConfig,
		encode: func(w io.Writer, img image.Image, opts options.Set) error {
			o := &tiff.Options{Compression: tiff.Uncompressed}
			if opts.Text("compression") == "deflate" {
				o.Compression = tiff.Deflate
			}
			o.Predictor = opts.Text("predictor") == "horizontal"
			return tiff.Encode(w, img, o)
		},
	}
}
