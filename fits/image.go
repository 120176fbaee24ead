package fits

// Image is an N-dimensional numeric array. Pixels are held as float64
// regardless of the on-disk encoding; BitPix remembers the encoding so a
// round-trip preserves the storage type. Shape follows NAXIS order, so
// Shape[0] is NAXIS1 (the fastest-varying axis).
type Image struct {
	BitPix int
	Shape  []int
	Pix    []float64
}

// NewImage allocates a zero-filled image.
func NewImage(bitpix int, shape ...int) *Image {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Image{
		BitPix: bitpix,
		Shape:  append([]int(nil), shape...),
		Pix:    make([]float64, n),
	}
}

// Len returns the total pixel count.
func (im *Image) Len() int {
	if im == nil {
		return 0
	}
	n := 1
	for _, s := range im.Shape {
		n *= s
	}
	return n
}

// At returns the pixel at (x, y) of a 2D image.
func (im *Image) At(x, y int) float64 {
	return im.Pix[y*im.Shape[0]+x]
}

// SetAt assigns the pixel at (x, y) of a 2D image.
func (im *Image) SetAt(x, y int, v float64) {
	im.Pix[y*im.Shape[0]+x] = v
}

// SameShape reports whether both images exist and have identical shapes.
func (im *Image) SameShape(other *Image) bool {
	if im == nil || other == nil {
		return false
	}
	if len(im.Shape) != len(other.Shape) {
		return false
	}
	for i, s := range im.Shape {
		if other.Shape[i] != s {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (im *Image) Clone() *Image {
	if im == nil {
		return nil
	}
	out := &Image{
		BitPix: im.BitPix,
		Shape:  append([]int(nil), im.Shape...),
		Pix:    append([]float64(nil), im.Pix...),
	}
	return out
}

// Crop cuts a 2D image down to the inclusive rectangle (x1,y1)-(x2,y2).
func (im *Image) Crop(x1, y1, x2, y2 int) {
	w, h := x2-x1+1, y2-y1+1
	pix := make([]float64, w*h)
	for y := 0; y < h; y++ {
		src := (y1+y)*im.Shape[0] + x1
		copy(pix[y*w:(y+1)*w], im.Pix[src:src+w])
	}
	im.Shape = []int{w, h}
	im.Pix = pix
}
