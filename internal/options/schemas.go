package options

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/AnyUserName/imgpipe/internal/format"
)

// Owners of operation schemas. Output format schemas are owned by the
// format name itself.
const (
	OwnerInput    = "input"
	OwnerResize   = "resize"
	OwnerRotate   = "rotate"
	OwnerBlur     = "blur"
	OwnerModulate = "modulate"
	OwnerFlatten  = "flatten"
	OwnerOutput   = "output"
)

// FormatKey names the output format argument in validation errors.
const FormatKey = "format"

// Input option keys.
const (
	JP2Oneshot       = "jp2.oneshot"
	LimitInputPixels = "limitInputPixels"
	AutoOrient       = "autoOrient"
)

// DefaultPixelLimit matches 0x3FFF * 0x3FFF.
const DefaultPixelLimit = 0x3FFF * 0x3FFF

// Chroma subsampling members.
const (
	Chroma420 = "4:2:0"
	Chroma444 = "4:4:4"
)

func quality(def int) Spec {
	return Spec{Kind: KindInt, Min: 1, Max: 100, Default: Int(def)}
}

func intRange(min, max, def int) Spec {
	return Spec{Kind: KindInt, Min: float64(min), Max: float64(max), Default: Int(def)}
}

func enum(def string, members ...string) Spec {
	return Spec{Kind: KindEnum, Enum: members, Default: enumValue(def)}
}

var toggle = Spec{Kind: KindBool}

var colour = Spec{Kind: KindString, Accept: ValidColour, Want: "colour"}

// ValidColour accepts "#rgb", "#rrggbb" and "transparent".
func ValidColour(s string) bool {
	if s == "transparent" {
		return true
	}
	_, err := colorful.Hex(s)
	return err == nil
}

var builtin = []Schema{
	{Owner: OwnerInput, Specs: map[string]Spec{
		JP2Oneshot:       toggle,
		LimitInputPixels: intRange(0, math.MaxInt32, DefaultPixelLimit),
		AutoOrient:       {Kind: KindBool, Default: Bool(true)},
	}},
	{Owner: OwnerResize, Specs: map[string]Spec{
		"fit":                enum("cover", "cover", "contain", "fill", "inside", "outside"),
		"kernel":             enum("lanczos3", "nearest", "linear", "cubic", "mitchell", "lanczos2", "lanczos3"),
		"withoutEnlargement": toggle,
		"background":         colour,
	}},
	{Owner: OwnerRotate, Specs: map[string]Spec{
		"background": colour,
	}},
	{Owner: OwnerBlur, Specs: map[string]Spec{
		"sigma": {Kind: KindNumber, Min: 0.3, Max: 1000, Default: Number(1)},
	}},
	{Owner: OwnerModulate, Specs: map[string]Spec{
		"brightness": {Kind: KindNumber, Min: 0, Max: 10, Default: Number(1)},
		"saturation": {Kind: KindNumber, Min: 0, Max: 10, Default: Number(1)},
	}},
	{Owner: OwnerFlatten, Specs: map[string]Spec{
		"background": colour,
	}},

	{Owner: string(format.JPEG), Specs: map[string]Spec{
		"quality": quality(80),
	}},
	{Owner: string(format.PNG), Specs: map[string]Spec{
		"compressionLevel": intRange(0, 9, 6),
	}},
	{Owner: string(format.GIF), Specs: map[string]Spec{
		"colors": intRange(2, 256, 256),
	}},
	{Owner: string(format.WebP), Specs: map[string]Spec{
		"quality":  quality(80),
		"lossless": toggle,
		"effort":   intRange(0, 6, 4),
	}},
	{Owner: string(format.AVIF), Specs: map[string]Spec{
		"quality":  quality(50),
		"lossless": toggle,
		"effort":   intRange(0, 9, 4),
	}},
	{Owner: string(format.TIFF), Specs: map[string]Spec{
		"compression": enum("none", "none", "deflate"),
		"predictor":   enum("none", "none", "horizontal"),
	}},
	{Owner: string(format.BMP), Specs: map[string]Spec{}},
	{Owner: string(format.JP2), Specs: map[string]Spec{
		"quality":           quality(80),
		"lossless":          toggle,
		"tileWidth":         intRange(1, 32768, 512),
		"tileHeight":        intRange(1, 32768, 512),
		"chromaSubsampling": enum(Chroma420, Chroma420, Chroma444),
	}},
}

func init() {
	for _, s := range builtin {
		Register(s)
	}
}

// OutputSchema returns the encode schema for f.
func OutputSchema(f format.Format) (Schema, bool) {
	if f == format.Unknown {
		return Schema{}, false
	}
	return Lookup(string(f))
}
