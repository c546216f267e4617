// Package format names the image formats known to the pipeline and maps
// file suffixes and magic bytes onto them.
package format

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format is a canonical, lower-case format name.
type Format string

const (
	Unknown Format = ""
	JPEG    Format = "jpeg"
	PNG     Format = "png"
	GIF     Format = "gif"
	WebP    Format = "webp"
	AVIF    Format = "avif"
	TIFF    Format = "tiff"
	BMP     Format = "bmp"
	JP2     Format = "jp2"
)

// Direction selects decode (Input) or encode (Output).
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// All lists every known format in display order.
var All = []Format{JPEG, PNG, WebP, AVIF, GIF, TIFF, BMP, JP2}

var aliases = map[string]Format{
	"jpeg": JPEG,
	"jpg":  JPEG,
	"png":  PNG,
	"gif":  GIF,
	"webp": WebP,
	"avif": AVIF,
	"tiff": TIFF,
	"tif":  TIFF,
	"bmp":  BMP,
	"jp2":  JP2,
	"j2k":  JP2,
	"j2c":  JP2,
	"jpx":  JP2,
	"jpf":  JP2,
}

// Parse resolves a format name or alias. ok is false for unknown names.
func Parse(name string) (Format, bool) {
	f, ok := aliases[strings.ToLower(strings.TrimPrefix(name, "."))]
	return f, ok
}

// FromPath infers a format from a file suffix. Unrecognised suffixes
// (including look-alikes such as ".failj2c") return Unknown.
func FromPath(path string) Format {
	ext := filepath.Ext(path)
	if ext == "" {
		return Unknown
	}
	f, _ := Parse(ext)
	return f
}

// Extension returns the preferred file suffix without the dot.
func (f Format) Extension() string {
	if f == JPEG {
		return "jpg"
	}
	return string(f)
}

// SupportsAlpha reports whether encoded output can carry an alpha channel.
func (f Format) SupportsAlpha() bool {
	switch f {
	case PNG, WebP, AVIF, TIFF, GIF, JP2:
		return true
	}
	return false
}

func (f Format) String() string {
	if f == Unknown {
		return "unknown"
	}
	return string(f)
}

var (
	jp2Signature = []byte("\x00\x00\x00\x0cjP  \r\n\x87\n")
	j2kSignature = []byte{0xff, 0x4f, 0xff, 0x51}
)

// Sniff identifies a format from leading magic bytes.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return JPEG
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return PNG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return GIF
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return WebP
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) &&
		(bytes.Equal(data[8:12], []byte("avif")) || bytes.Equal(data[8:12], []byte("avis"))):
		return AVIF
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	case bytes.HasPrefix(data, []byte("BM")):
		return BMP
	case bytes.HasPrefix(data, jp2Signature), bytes.HasPrefix(data, j2kSignature):
		return JP2
	}
	return Unknown
}
