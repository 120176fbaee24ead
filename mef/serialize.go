package mef

import (
	"github.com/astrokit/mefkit/fits"
)

// ToUnits flattens the provider into the canonical unit list: the primary
// header first, then per extension its science plane, variance (as VAR),
// mask (as DQ) and named payloads in attachment order, and finally the free
// tables sorted by name.
func (p *Provider) ToUnits() ([]*fits.Unit, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}

	units := make([]*fits.Unit, 0, len(p.exts)*2+len(p.tables)+1)
	units = append(units, fits.NewPrimaryUnit(p.headers[0]))

	for _, e := range p.exts {
		units = append(units, fits.NewImageUnit(e.data, e.header))

		if v := e.uncertainty.AsVariance(); v != nil {
			units = append(units, planeUnit(v, e.header, varianceExtName))
		}
		if e.mask != nil {
			units = append(units, planeUnit(e.mask, e.header, maskExtName))
		}

		for _, name := range e.otherNames {
			switch v := e.other[name].(type) {
			case *fits.Table:
				u := fits.NewTableUnit(v)
				u.SetName(name, "")
				units = append(units, u)
			case *fits.Image:
				hdr, ok := e.otherHeader[name]
				if !ok {
					hdr = e.header
				}
				units = append(units, planeUnit(v, hdr, name))
			case *Extension:
				units = append(units, planeUnit(v.data, e.header, name))
			default:
				return nil, errf(ErrKindUnsupported,
					"payload %q (%T) has no serialized form", name, v)
			}
		}
	}

	for _, name := range sortedNames(tableNameSet(p.tables)) {
		tbl, err := p.Table(name)
		if err != nil {
			return nil, err
		}
		u := fits.NewTableUnit(tbl)
		u.SetName(name, "")
		units = append(units, u)
	}
	return units, nil
}

// planeUnit wraps an auxiliary pixel plane, restamping the borrowed header
// copy with the plane's own name.
func planeUnit(img *fits.Image, hdr *fits.Header, name string) *fits.Unit {
	h := hdr.Clone()
	h.Set("EXTNAME", name, "")
	return fits.NewImageUnit(img, h)
}
