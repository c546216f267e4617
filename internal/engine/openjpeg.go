package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/AnyUserName/imgpipe/internal/format"
	"github.com/AnyUserName/imgpipe/internal/jp2"
	"github.com/AnyUserName/imgpipe/internal/options"
)

// JP2Codec shells out to the OpenJPEG command line tools.
// Install: brew install openjpeg / apt install libopenjp2-tools
type JP2Codec struct {
	compress   *tool
	decompress *tool
}

// NewJP2Codec returns a JPEG 2000 codec that looks for OpenJPEG on first use.
func NewJP2Codec() *JP2Codec {
	return &JP2Codec{
		compress:   newTool("opj_compress", "OpenJPEG"),
		decompress: newTool("opj_decompress", "OpenJPEG"),
	}
}

func (c *JP2Codec) Format() format.Format { return format.JP2 }

func (c *JP2Codec) CanDecode() (bool, string) {
	if c.decompress.available() {
		return true, ""
	}
	return false, c.decompress.missing("JP2", format.Input)
}

func (c *JP2Codec) CanEncode() (bool, string) {
	if c.compress.available() {
		return true, ""
	}
	return false, c.compress.missing("JP2", format.Output)
}

// Size reads the image extent from the SIZ marker.
func (c *JP2Codec) Size(data []byte) (int, int, error) {
	l, err := jp2.Inspect(data)
	return l.Width, l.Height, err
}

// Decode always reassembles the full raster, so it serves both decode
// strategies; the Default guard against segmented input runs upstream.
func (c *JP2Codec) Decode(ctx context.Context, data []byte, _ DecodeOptions) (image.Image, error) {
	dir, cleanup, err := workdir("opjdec")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// opj_decompress picks its parser from the file suffix.
	src := filepath.Join(dir, "src.jp2")
	if isRawCodestream(data) {
		src = filepath.Join(dir, "src.j2k")
	}
	dst := filepath.Join(dir, "dst.png")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, errors.Wrap(err, "write temp jp2")
	}
	if err := c.decompress.run(ctx, "decode", format.JP2, "-i", src, "-o", dst); err != nil {
		return nil, err
	}
	return readPNG(dst)
}

func (c *JP2Codec) Encode(ctx context.Context, img image.Image, opts options.Set) ([]byte, error) {
	lossless := opts.Bool("lossless")
	if !lossless && opts.Text("chromaSubsampling") == options.Chroma420 {
		img = Subsample420(img)
	}

	dir, cleanup, err := workdir("opjenc")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	src := filepath.Join(dir, "src.png")
	dst := filepath.Join(dir, "dst.jp2")
	if err := writePNG(src, img); err != nil {
		return nil, err
	}

	b := img.Bounds()
	tw := min(opts.Int("tileWidth"), b.Dx())
	th := min(opts.Int("tileHeight"), b.Dy())
	args := []string{"-i", src, "-o", dst, "-t", fmt.Sprintf("%d,%d", tw, th)}
	if !lossless {
		args = append(args, "-I", "-r", strconv.FormatFloat(compressionRatio(opts.Int("quality")), 'f', 2, 64))
	}

	if err := c.compress.run(ctx, "encode", format.JP2, args...); err != nil {
		return nil, err
	}
	out, err := os.ReadFile(dst)
	if err != nil {
		return nil, errors.Wrap(err, "read opj_compress output")
	}
	return out, nil
}

// compressionRatio maps quality 1..100 onto an opj rate: 100 is 1:1 and
// every four points below that add one to the ratio.
func compressionRatio(quality int) float64 {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return 1 + float64(100-quality)/4
}

var codestreamMagic = []byte{0xFF, 0x4F, 0xFF, 0x51}

func isRawCodestream(data []byte) bool {
	return bytes.HasPrefix(data, codestreamMagic)
}
