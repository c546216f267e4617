package engine

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Subsample420 keeps full resolution luma but averages chroma over 2x2
// blocks, which is what a 4:2:0 encoder would store. Alpha is untouched.
func Subsample420(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(b)

	for by := 0; by < h; by += 2 {
		for bx := 0; bx < w; bx += 2 {
			var cbSum, crSum, n int
			for y := by; y < min(by+2, h); y++ {
				for x := bx; x < min(bx+2, w); x++ {
					i := src.PixOffset(x, y)
					_, cb, cr := color.RGBToYCbCr(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
					cbSum += int(cb)
					crSum += int(cr)
					n++
				}
			}
			cb, cr := uint8(cbSum/n), uint8(crSum/n)

			for y := by; y < min(by+2, h); y++ {
				for x := bx; x < min(bx+2, w); x++ {
					i := src.PixOffset(x, y)
					luma, _, _ := color.RGBToYCbCr(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
					r, g, bl := color.YCbCrToRGB(luma, cb, cr)
					out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, bl, src.Pix[i+3]
				}
			}
		}
	}
	return out
}
