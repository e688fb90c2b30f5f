package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

// TestSRGBRoundTrip verifies decode→encode reproduces 8-bit channel values
// within quantization tolerance for a spread of intensities.
func TestSRGBRoundTrip(t *testing.T) {
	values := []uint8{0, 1, 5, 37, 64, 128, 200, 254, 255}
	for _, v := range values {
		src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		src.SetNRGBA(0, 0, color.NRGBA{R: v, G: v, B: v, A: 255})

		got := DecodeSRGB(src).EncodeSRGB().NRGBAAt(0, 0)
		assert.InDelta(t, float64(v), float64(got.R), 1, "R for input %d", v)
		assert.InDelta(t, float64(v), float64(got.G), 1, "G for input %d", v)
		assert.InDelta(t, float64(v), float64(got.B), 1, "B for input %d", v)
		assert.EqualValues(t, 255, got.A)
	}
}

// TestDecodeSRGB_AlphaIsLinear checks alpha passes through untransformed.
func TestDecodeSRGB_AlphaIsLinear(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 128})

	_, _, _, a := DecodeSRGB(src).At(0, 0)
	assert.InDelta(t, 128.0/255, a, 1e-9)
}

func TestCorrectTranslucency(t *testing.T) {
	img := NewImage(2, 1)
	img.Set(0, 0, 0.9, 0.2, 0.4, 0)   // stray color under zero alpha
	img.Set(1, 0, 0.9, 0.2, 0.4, 0.5) // translucent but visible

	CorrectTranslucency(img)

	r, g, b, a := img.At(0, 0)
	assert.Equal(t, []float64{0, 0, 0, 0}, []float64{r, g, b, a})

	r, _, _, a = img.At(1, 0)
	assert.Equal(t, 0.9, r)
	assert.Equal(t, 0.5, a)
}

// TestResample_IdentitySizeCopies verifies size-preserving resampling is an
// exact copy.
func TestResample_IdentitySizeCopies(t *testing.T) {
	src := NewImage(3, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			src.Set(x, y, float64(x)/3, float64(y)/2, 0.5, 1)
		}
	}
	got := Resample(src, 3, 2)
	if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
		t.Errorf("identity resample altered pixels (-src +got):\n%s", diff)
	}
	// The copy is independent of the source.
	got.Set(0, 0, 1, 1, 1, 1)
	r, _, _, _ := src.At(0, 0)
	assert.Equal(t, 0.0, r)
}

// TestResample_ConstantStaysConstant checks the kernel does not disturb a
// flat source when scaling.
func TestResample_ConstantStaysConstant(t *testing.T) {
	src := NewImage(8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, 0.25, 0.5, 0.75, 1)
		}
	}
	got := Resample(src, 16, 16)
	assert.Equal(t, 16, got.Width)
	assert.Equal(t, 16, got.Height)
	r, g, b, a := got.At(7, 7)
	assert.InDelta(t, 0.25, r, 1.0/255)
	assert.InDelta(t, 0.5, g, 1.0/255)
	assert.InDelta(t, 0.75, b, 1.0/255)
	assert.InDelta(t, 1.0, a, 1.0/255)
}

func TestToNRGBA(t *testing.T) {
	direct := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	assert.Same(t, direct, ToNRGBA(direct))

	src := image.NewNRGBA64(image.Rect(0, 0, 2, 2))
	src.SetNRGBA64(1, 1, color.NRGBA64{R: 0xffff, A: 0xffff})
	got := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 2), got.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, got.NRGBAAt(1, 1))
}
