package mef

import (
	"github.com/astrokit/mefkit/fits"
)

// Extension is one top-level science record: the pixel plane plus its
// associated uncertainty, mask and named auxiliary payloads. Its ver is
// unique among the live top-level records of a Provider at any instant.
type Extension struct {
	name   string // logical alias, resolvable through GetNamed
	ver    int
	header *fits.Header

	data        *fits.Image
	uncertainty *VarianceUncertainty
	mask        *fits.Image

	// Auxiliary payloads keyed by name, in insertion order. A payload is a
	// *fits.Image, a *fits.Table or a nested *Extension.
	otherNames  []string
	other       map[string]any
	otherHeader map[string]*fits.Header
}

func newExtension(header *fits.Header) *Extension {
	if header == nil {
		header = fits.NewHeader()
	}
	return &Extension{
		header:      header,
		ver:         -1,
		other:       map[string]any{},
		otherHeader: map[string]*fits.Header{},
	}
}

// Name returns the record's logical alias ("" when unset).
func (e *Extension) Name() string { return e.name }

// SetAlias assigns the record's logical alias.
func (e *Extension) SetAlias(name string) { e.name = name }

// Ver returns the record's EXTVER.
func (e *Extension) Ver() int { return e.ver }

// Header returns the bound header. The same object lives in the Provider's
// header store.
func (e *Extension) Header() *fits.Header { return e.header }

// Data returns the pixel plane.
func (e *Extension) Data() *fits.Image { return e.data }

// SetData replaces the pixel plane.
func (e *Extension) SetData(img *fits.Image) { e.data = img }

// Mask returns the bit-flag mask plane, or nil.
func (e *Extension) Mask() *fits.Image { return e.mask }

// SetMask replaces the mask plane.
func (e *Extension) SetMask(img *fits.Image) { e.mask = img }

// Uncertainty returns the uncertainty, or nil.
func (e *Extension) Uncertainty() *VarianceUncertainty { return e.uncertainty }

// SetUncertainty replaces the uncertainty wholesale.
func (e *Extension) SetUncertainty(u *VarianceUncertainty) { e.uncertainty = u }

// Variance returns the uncertainty re-expressed as variance, or nil.
func (e *Extension) Variance() *fits.Image {
	return e.uncertainty.AsVariance()
}

// SetVariance interprets img as variance and stores it as the record's
// uncertainty; nil clears it.
func (e *Extension) SetVariance(img *fits.Image) {
	if img == nil {
		e.uncertainty = nil
		return
	}
	e.uncertainty = NewVarianceUncertainty(img)
}

// Other returns the named auxiliary payload.
func (e *Extension) Other(name string) (any, bool) {
	v, ok := e.other[name]
	return v, ok
}

// OtherNames returns the auxiliary payload names in insertion order.
func (e *Extension) OtherNames() []string {
	return append([]string(nil), e.otherNames...)
}

// OtherHeader returns the header attached to a named payload, if any.
func (e *Extension) OtherHeader(name string) (*fits.Header, bool) {
	h, ok := e.otherHeader[name]
	return h, ok
}

// DeleteOther removes a named payload and its header.
func (e *Extension) DeleteOther(name string) bool {
	if _, ok := e.other[name]; !ok {
		return false
	}
	delete(e.other, name)
	delete(e.otherHeader, name)
	for i, n := range e.otherNames {
		if n == name {
			e.otherNames = append(e.otherNames[:i], e.otherNames[i+1:]...)
			break
		}
	}
	return true
}

// setOther installs a named payload, forcing an attached header's EXTVER to
// the parent record's version.
func (e *Extension) setOther(name string, payload any, header *fits.Header) {
	if _, ok := e.other[name]; !ok {
		e.otherNames = append(e.otherNames, name)
	}
	e.other[name] = payload
	if header != nil {
		header.Set("EXTVER", e.ver, "")
		e.otherHeader[name] = header
	}
}

// setVer stamps ver on the record, its header, and the headers of all its
// named payloads.
func (e *Extension) setVer(ver int) {
	e.ver = ver
	e.header.Set("EXTVER", ver, "")
	for name := range e.other {
		if h, ok := e.otherHeader[name]; ok {
			h.Set("EXTVER", ver, "")
		} else if nested, ok := e.other[name].(*Extension); ok {
			nested.header.Set("EXTVER", ver, "")
		}
	}
}

// deepCopy clones the record, header included.
func (e *Extension) deepCopy() *Extension {
	out := newExtension(e.header.Clone())
	out.name = e.name
	out.ver = e.ver
	out.data = e.data.Clone()
	out.uncertainty = e.uncertainty.Clone()
	out.mask = e.mask.Clone()
	for _, name := range e.otherNames {
		var payload any
		switch v := e.other[name].(type) {
		case *fits.Image:
			payload = v.Clone()
		case *fits.Table:
			payload = v.Clone()
		case *Extension:
			payload = v.deepCopy()
		default:
			payload = v
		}
		out.otherNames = append(out.otherNames, name)
		out.other[name] = payload
		if h, ok := e.otherHeader[name]; ok {
			out.otherHeader[name] = h.Clone()
		}
	}
	return out
}
