package raster

import (
	"errors"
	"fmt"
	"image"
)

// ErrDoesNotFit is returned when an overlay is larger than its destination
var ErrDoesNotFit = errors.New("overlay does not fit into destination")

// RGB is an 8-bit per channel color
type RGB [3]uint8

// Raster is the pixel access the overlay needs. Coordinates are zero-based.
type Raster interface {
	Width() int
	Height() int
	RGBAt(x, y int) RGB
	SetRGB(x, y int, c RGB)
}

// NRGBA adapts an *image.NRGBA to Raster. Alpha is written as opaque.
type NRGBA struct {
	img *image.NRGBA
}

// Wrap returns a Raster backed by img's pixel buffer
func Wrap(img *image.NRGBA) NRGBA {
	return NRGBA{img: img}
}

// Image returns the wrapped image
func (r NRGBA) Image() *image.NRGBA {
	return r.img
}

func (r NRGBA) Width() int  { return r.img.Rect.Dx() }
func (r NRGBA) Height() int { return r.img.Rect.Dy() }

func (r NRGBA) RGBAt(x, y int) RGB {
	i := r.offset(x, y)
	return RGB{r.img.Pix[i], r.img.Pix[i+1], r.img.Pix[i+2]}
}

func (r NRGBA) SetRGB(x, y int, c RGB) {
	i := r.offset(x, y)
	r.img.Pix[i+0] = c[0]
	r.img.Pix[i+1] = c[1]
	r.img.Pix[i+2] = c[2]
	r.img.Pix[i+3] = 0xff
}

func (r NRGBA) offset(x, y int) int {
	return r.img.PixOffset(x+r.img.Rect.Min.X, y+r.img.Rect.Min.Y)
}

// CenterOffset is the top-left position that centers an inner box of
// w x h inside an outer box of outerW x outerH.
func CenterOffset(outerW, outerH, w, h int) image.Point {
	return image.Pt((outerW-w)/2, (outerH-h)/2)
}

// OverlayCentered copies src onto the center of dst, replacing pixels
// without blending.
func OverlayCentered(dst, src Raster) error {
	dw, dh := dst.Width(), dst.Height()
	sw, sh := src.Width(), src.Height()
	if sw > dw || sh > dh {
		return fmt.Errorf("%w: %dx%d onto %dx%d", ErrDoesNotFit, sw, sh, dw, dh)
	}

	off := CenterOffset(dw, dh, sw, sh)
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			dst.SetRGB(off.X+x, off.Y+y, src.RGBAt(x, y))
		}
	}
	return nil
}
