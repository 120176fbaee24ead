// Package testutil builds synthetic MEF structures for tests.
package testutil

import (
	"github.com/astrokit/mefkit/fits"
)

// ConstImage returns a w x h float64 image filled with v.
func ConstImage(w, h int, v float64) *fits.Image {
	img := fits.NewImage(-64, w, h)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// GradientImage returns a w x h image whose pixel value equals its flat
// index, handy for asserting orientation after crops and copies.
func GradientImage(w, h int) *fits.Image {
	img := fits.NewImage(-64, w, h)
	for i := range img.Pix {
		img.Pix[i] = float64(i)
	}
	return img
}

// ExtHeader returns a header carrying EXTNAME/EXTVER. ver -1 leaves EXTVER
// unset.
func ExtHeader(name string, ver int) *fits.Header {
	h := fits.NewHeader()
	h.Set("EXTNAME", name, "")
	if ver != -1 {
		h.Set("EXTVER", ver, "")
	}
	return h
}

// SciUnit returns a science image unit with the given version and size.
func SciUnit(ver, w, h int) *fits.Unit {
	return fits.NewImageUnit(GradientImage(w, h), ExtHeader("SCI", ver))
}

// PlaneUnit returns an auxiliary image unit (DQ, VAR, or a named plane).
func PlaneUnit(name string, ver, w, h int, v float64) *fits.Unit {
	return fits.NewImageUnit(ConstImage(w, h, v), ExtHeader(name, ver))
}

// Catalog returns a small two-column table named name.
func Catalog(name string, rows int) *fits.Table {
	ids := &fits.Column{Name: "ID", Type: fits.ColInt, Ints: make([]int64, rows)}
	mags := &fits.Column{Name: "MAG", Type: fits.ColFloat, Floats: make([]float64, rows)}
	for i := 0; i < rows; i++ {
		ids.Ints[i] = int64(i + 1)
		mags.Floats[i] = 20.0 - float64(i)*0.5
	}
	tbl := fits.NewTable(ids, mags)
	tbl.SetHeader(ExtHeader(name, -1))
	return tbl
}

// TableUnit wraps Catalog as a backing unit.
func TableUnit(name string, rows int) *fits.Unit {
	return fits.NewTableUnit(Catalog(name, rows))
}

// MEF prepends a bare primary unit to exts.
func MEF(exts ...*fits.Unit) []*fits.Unit {
	units := []*fits.Unit{fits.NewPrimaryUnit(nil)}
	return append(units, exts...)
}
