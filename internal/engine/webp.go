package engine

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/image/webp"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// WebPCodec decodes WebP in pure Go and encodes it by shelling out to cwebp.
// Install: brew install webp / apt install webp
type WebPCodec struct {
	cwebp *tool
}

// NewWebPCodec returns a WebP codec that looks for cwebp on first use.
func NewWebPCodec() *WebPCodec {
	return &WebPCodec{cwebp: newTool("cwebp", "libwebp")}
}

func (c *WebPCodec) Format() format.Format     { return format.WebP }
func (c *WebPCodec) CanDecode() (bool, string) { return true, "" }

func (c *WebPCodec) CanEncode() (bool, string) {
	if c.cwebp.available() {
		return true, ""
	}
	return false, c.cwebp.missing("WebP", format.Output)
}

func (c *WebPCodec) Decode(_ context.Context, data []byte, _ DecodeOptions) (image.Image, error) {
	return webp.Decode(bytes.NewReader(data))
}

func (c *WebPCodec) Size(data []byte) (int, int, error) {
	cfg, err := webp.DecodeConfig(bytes.NewReader(data))
	return cfg.Width, cfg.Height, err
}

func (c *WebPCodec) Encode(ctx context.Context, img image.Image, opts options.Set) ([]byte, error) {
	dir, cleanup, err := workdir("webp")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.webp")
	if err := writePNG(src, img); err != nil {
		return nil, err
	}

	args := []string{
		"-q", strconv.Itoa(opts.Int("quality")),
		"-m", strconv.Itoa(opts.Int("effort")), // 0=fast, 6=best
		"-mt",
		"-quiet",
	}
	if opts.Bool("lossless") {
		args = append(args, "-lossless")
	}
	args = append(args, src, "-o", dst)

	if err := c.cwebp.run(ctx, "encode", format.WebP, args...); err != nil {
		return nil, err
	}
	out, err := os.ReadFile(dst)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s output", c.cwebp.name)
	}
	return out, nil
}
