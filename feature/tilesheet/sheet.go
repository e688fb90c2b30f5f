package tilesheet

import (
	"fmt"
	"image"

	"tilesheet-manager/core/imaging"

	"golang.org/x/image/draw"
)

// Sheet is the atlas family for a single output resolution: one raster
// buffer per layer. Buffer dimensions are always multiples of the cell size
// and only ever grow; existing pixel content survives growth unchanged.
type Sheet struct {
	size   int
	layers []*image.NRGBA
}

// NewSheet creates an empty sheet for the given cell size.
func NewSheet(size int) (*Sheet, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid sheet size %d", size)
	}
	return &Sheet{size: size}, nil
}

// SetLayer installs a previously composed raster as layer z, appending empty
// minimal buffers for any layers below it. Used when resuming from sheets
// saved by an earlier run.
func (s *Sheet) SetLayer(z int, img *image.NRGBA) error {
	b := img.Bounds()
	if b.Dx()%s.size != 0 || b.Dy()%s.size != 0 {
		return fmt.Errorf("layer %d dimensions %dx%d are not multiples of size %d", z, b.Dx(), b.Dy(), s.size)
	}
	for len(s.layers) <= z {
		s.layers = append(s.layers, s.emptyLayer())
	}
	s.layers[z] = img
	return nil
}

// Size returns the cell size in pixels.
func (s *Sheet) Size() int {
	return s.size
}

// LayerCount returns the number of layer buffers currently held.
func (s *Sheet) LayerCount() int {
	return len(s.layers)
}

// Layer returns the raster buffer for layer z, or nil if z has never been
// written.
func (s *Sheet) Layer(z int) *image.NRGBA {
	if z < 0 || z >= len(s.layers) {
		return nil
	}
	return s.layers[z]
}

func (s *Sheet) emptyLayer() *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, s.size, s.size))
}

// Insert resamples src to the cell size, encodes it to sRGB, and overwrites
// the cell at pos. The target layer buffer grows to the smallest multiple of
// the cell size covering both the existing content and the new cell.
// Inserting twice at the same position is idempotent.
func (s *Sheet) Insert(pos TilePos, src *imaging.Image) error {
	if pos.X < 0 || pos.Y < 0 || pos.Z < 0 {
		return fmt.Errorf("invalid tile position %s", pos)
	}
	cell := imaging.Resample(src, s.size, s.size).EncodeSRGB()

	for len(s.layers) <= pos.Z {
		s.layers = append(s.layers, s.emptyLayer())
	}
	buf := s.layers[pos.Z]

	needW := (pos.X + 1) * s.size
	needH := (pos.Y + 1) * s.size
	if needW > buf.Bounds().Dx() || needH > buf.Bounds().Dy() {
		buf = s.grow(pos.Z, needW, needH)
	}

	dst := image.Rect(pos.X*s.size, pos.Y*s.size, needW, needH)
	draw.Draw(buf, dst, cell, image.Point{}, draw.Src)
	return nil
}

// grow replaces layer z's buffer with a larger one, copying the old content
// to the origin. Never shrinks on either axis.
func (s *Sheet) grow(z, needW, needH int) *image.NRGBA {
	old := s.layers[z]
	w := old.Bounds().Dx()
	h := old.Bounds().Dy()
	if needW > w {
		w = needW
	}
	if needH > h {
		h = needH
	}
	grown := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(grown, old.Bounds(), old, image.Point{}, draw.Src)
	s.layers[z] = grown
	return grown
}
