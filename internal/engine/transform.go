package engine

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/AnyUserName/imgpipe/internal/options"
)

// Black is the default background for every operation that exposes new
// pixels.
var Black = color.NRGBA{A: 0xff}

// ParseColour reads "#rgb", "#rrggbb" or "transparent". Empty or unreadable
// input yields fallback.
func ParseColour(s string, fallback color.NRGBA) color.NRGBA {
	if s == "" {
		return fallback
	}
	if s == "transparent" {
		return color.NRGBA{}
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return fallback
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// Kernel returns the resampling filter for a resize kernel name.
func Kernel(name string) imaging.ResampleFilter {
	switch name {
	case "nearest":
		return imaging.NearestNeighbor
	case "linear":
		return imaging.Linear
	case "cubic":
		return imaging.CatmullRom
	case "mitchell":
		return imaging.MitchellNetravali
	case "lanczos2":
		return lanczos2
	}
	return imaging.Lanczos
}

var lanczos2 = imaging.ResampleFilter{
	Support: 2.0,
	Kernel: func(x float64) float64 {
		x = math.Abs(x)
		if x < 2.0 {
			return sinc(x) * sinc(x/2.0)
		}
		return 0
	},
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// TargetSize fills in a zero width or height from the source aspect ratio.
func TargetSize(srcW, srcH, width, height int) (int, int) {
	switch {
	case width == 0 && height == 0:
		return srcW, srcH
	case width == 0:
		width = max(1, int(math.Round(float64(srcW)*float64(height)/float64(srcH))))
	case height == 0:
		height = max(1, int(math.Round(float64(srcH)*float64(width)/float64(srcW))))
	}
	return width, height
}

// ResizedSize reports the bounds Resize produces for a srcW x srcH image,
// without touching pixels.
func ResizedSize(srcW, srcH, width, height int, opts options.Set) (int, int) {
	if srcW == 0 || srcH == 0 {
		return srcW, srcH
	}
	width, height = TargetSize(srcW, srcH, width, height)
	noEnlarge := opts.Bool("withoutEnlargement")

	switch fit := opts.Text("fit"); fit {
	case "inside", "outside", "contain":
		if fit == "contain" {
			return width, height
		}
		scale := math.Min(float64(width)/float64(srcW), float64(height)/float64(srcH))
		if fit == "outside" {
			scale = math.Max(float64(width)/float64(srcW), float64(height)/float64(srcH))
		}
		if noEnlarge && scale > 1 {
			scale = 1
		}
		return max(1, int(math.Round(float64(srcW)*scale))), max(1, int(math.Round(float64(srcH)*scale)))
	}
	// fill and cover
	if noEnlarge && (width > srcW || height > srcH) {
		return srcW, srcH
	}
	return width, height
}

// Resize scales img towards a width x height box using the fit, kernel,
// withoutEnlargement and background options.
func Resize(img image.Image, width, height int, opts options.Set) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}
	width, height = TargetSize(srcW, srcH, width, height)
	filter := Kernel(opts.Text("kernel"))
	noEnlarge := opts.Bool("withoutEnlargement")

	sx := float64(width) / float64(srcW)
	sy := float64(height) / float64(srcH)

	switch opts.Text("fit") {
	case "fill":
		if noEnlarge && (width > srcW || height > srcH) {
			return img
		}
		return imaging.Resize(img, width, height, filter)

	case "inside", "outside", "contain":
		scale := math.Min(sx, sy)
		if opts.Text("fit") == "outside" {
			scale = math.Max(sx, sy)
		}
		if noEnlarge && scale > 1 {
			scale = 1
		}
		w := max(1, int(math.Round(float64(srcW)*scale)))
		h := max(1, int(math.Round(float64(srcH)*scale)))
		var scaled image.Image = img
		if w != srcW || h != srcH {
			scaled = imaging.Resize(img, w, h, filter)
		}
		if opts.Text("fit") != "contain" {
			return scaled
		}
		canvas := imaging.New(width, height, ParseColour(opts.Text("background"), Black))
		return imaging.PasteCenter(canvas, scaled)
	}

	// cover
	if noEnlarge && (width > srcW || height > srcH) {
		return img
	}
	return imaging.Fill(img, width, height, imaging.Center, filter)
}

// Rotate turns img clockwise by angle degrees. Corners exposed by angles
// that are not multiples of 90 are filled with the background option.
func Rotate(img image.Image, angle float64, opts options.Set) image.Image {
	// imaging rotates counter-clockwise.
	return imaging.Rotate(img, -angle, ParseColour(opts.Text("background"), Black))
}

// Flip mirrors top to bottom.
func Flip(img image.Image) image.Image { return imaging.FlipV(img) }

// Flop mirrors left to right.
func Flop(img image.Image) image.Image { return imaging.FlipH(img) }

// Blur applies a gaussian blur.
func Blur(img image.Image, sigma float64) image.Image {
	return imaging.Blur(img, sigma)
}

// Grayscale drops colour. Opaque results are returned as *image.Gray so
// encoders write a single channel.
func Grayscale(img image.Image) image.Image {
	g := imaging.Grayscale(img)
	if !g.Opaque() {
		return g
	}
	gray := image.NewGray(g.Bounds())
	draw.Draw(gray, gray.Bounds(), g, g.Bounds().Min, draw.Src)
	return gray
}

// Modulate scales brightness and saturation by their multipliers; 1 leaves
// a channel alone.
func Modulate(img image.Image, opts options.Set) image.Image {
	out := img
	if b := multiplier(opts, "brightness"); b != 1 {
		out = adjust.Brightness(out, clamp(b-1, -1, 1))
	}
	if s := multiplier(opts, "saturation"); s != 1 {
		out = adjust.Saturation(out, clamp(s-1, -1, 9))
	}
	return out
}

func multiplier(opts options.Set, key string) float64 {
	v, ok := opts.Get(key)
	if !ok {
		return 1
	}
	return v.Float()
}

// Flatten composites img over an opaque background.
func Flatten(img image.Image, opts options.Set) image.Image {
	bg := ParseColour(opts.Text("background"), Black)
	bg.A = 0xff
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// Opaque reports whether every pixel of img is fully opaque.
func Opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// Channels counts the bands an encoder will write for img: one or three
// colour bands plus alpha when the image has any and alphaCapable is set.
func Channels(img image.Image, alphaCapable bool) int {
	n := 3
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		n = 1
	}
	if alphaCapable && !Opaque(img) {
		n++
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
