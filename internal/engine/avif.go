package engine

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// AVIFCodec shells out to avifenc and avifdec.
// Install: brew install libavif / apt install libavif-bin
type AVIFCodec struct {
	avifenc *tool
	avifdec *tool
}

// NewAVIFCodec returns an AVIF codec that looks for libavif tools on first use.
func NewAVIFCodec() *AVIFCodec {
	return &AVIFCodec{
		avifenc: newTool("avifenc", "libavif"),
		avifdec: newTool("avifdec", "libavif"),
	}
}

func (c *AVIFCodec) Format() format.Format { return format.AVIF }

func (c *AVIFCodec) CanDecode() (bool, string) {
	if c.avifdec.available() {
		return true, ""
	}
	return false, c.avifdec.missing("AVIF", format.Input)
}

func (c *AVIFCodec) CanEncode() (bool, string) {
	if c.avifenc.available() {
		return true, ""
	}
	return false, c.avifenc.missing("AVIF", format.Output)
}

func (c *AVIFCodec) Decode(ctx context.Context, data []byte, _ DecodeOptions) (image.Image, error) {
	dir, cleanup, err := workdir("avifdec")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	src := filepath.Join(dir, "src.avif")
	dst := filepath.Join(dir, "dst.png")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, errors.Wrap(err, "write temp avif")
	}
	if err := c.avifdec.run(ctx, "decode", format.AVIF, src, dst); err != nil {
		return nil, err
	}
	return readPNG(dst)
}

func (c *AVIFCodec) Encode(ctx context.Context, img image.Image, opts options.Set) ([]byte, error) {
	dir, cleanup, err := workdir("avifenc")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.avif")
	if err := writePNG(src, img); err != nil {
		return nil, err
	}

	// avifenc speed runs the other way: 0=slowest, 10=fastest.
	speed := 9 - opts.Int("effort")
	args := []string{"--speed", strconv.Itoa(speed), "-j", "all"}
	if opts.Bool("lossless") {
		args = append(args, "--lossless")
	} else {
		// Quantizer scale is inverted, lower = better, 0-63.
		q := 63 - (opts.Int("quality") * 63 / 100)
		args = append(args, "--min", strconv.Itoa(q), "--max", strconv.Itoa(q))
	}
	args = append(args, src, dst)

	if err := c.avifenc.run(ctx, "encode", format.AVIF, args...); err != nil {
		return nil, err
	}
	out, err := os.ReadFile(dst)
	if err != nil {
		return nil, errors.Wrap(err, "read avifenc output")
	}
	return out, nil
}
