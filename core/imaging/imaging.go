package imaging

import (
	"image"
	"image/color"
	"math"
)

// Image is a working raster in linear light: float64 RGBA samples in [0, 1],
// non-premultiplied, row-major. All compositing and resampling operates on
// this representation; sRGB encoding happens only at the output boundary.
type Image struct {
	Width  int
	Height int
	// Pix holds 4 samples per pixel in R, G, B, A order.
	Pix []float64
}

// NewImage returns a fully transparent linear image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*4),
	}
}

func (m *Image) index(x, y int) int {
	return (y*m.Width + x) * 4
}

// At returns the linear RGBA samples at (x, y).
func (m *Image) At(x, y int) (r, g, b, a float64) {
	i := m.index(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]
}

// Set stores linear RGBA samples at (x, y).
func (m *Image) Set(x, y int, r, g, b, a float64) {
	i := m.index(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = r, g, b, a
}

// srgbToLinear applies the sRGB electro-optical transfer function to a
// gamma-encoded sample in [0, 1].
func srgbToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// linearToSRGB is the inverse of srgbToLinear.
func linearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// DecodeSRGB converts a gamma-encoded image to the linear working
// representation. Alpha is carried through unchanged; color channels are
// linearized per the sRGB transfer function.
func DecodeSRGB(src image.Image) *Image {
	b := src.Bounds()
	out := NewImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.Set(x, y,
				srgbToLinear(float64(c.R)/255),
				srgbToLinear(float64(c.G)/255),
				srgbToLinear(float64(c.B)/255),
				float64(c.A)/255,
			)
		}
	}
	return out
}

// EncodeSRGB quantizes the linear image back to 8-bit gamma-encoded NRGBA.
func (m *Image) EncodeSRGB() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, g, b, a := m.At(x, y)
			out.SetNRGBA(x, y, color.NRGBA{
				R: quantize(linearToSRGB(r)),
				G: quantize(linearToSRGB(g)),
				B: quantize(linearToSRGB(b)),
				A: quantize(a),
			})
		}
	}
	return out
}

func quantize(c float64) uint8 {
	v := math.Round(c * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// CorrectTranslucency zeroes the color channels of fully transparent pixels.
// Decoders leave arbitrary color under zero alpha, and a resampling kernel
// spanning such pixels would bleed that color into visible edges.
func CorrectTranslucency(m *Image) {
	for i := 0; i < len(m.Pix); i += 4 {
		if m.Pix[i+3] == 0 {
			m.Pix[i], m.Pix[i+1], m.Pix[i+2] = 0, 0, 0
		}
	}
}
