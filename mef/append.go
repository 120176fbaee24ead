package mef

import (
	"github.com/astrokit/mefkit/fits"
)

// AppendOptions qualifies an Append call. All fields are optional.
type AppendOptions struct {
	// Name the payload should be stored under. Defaults to the value's own
	// EXTNAME where it has one, or to DefaultExtension for pixel planes.
	Name string
	// Header to bind instead of the value's own.
	Header *fits.Header
	// AddTo attaches the payload to an existing record instead of creating
	// a new top-level one.
	AddTo *Extension
}

type appendArgs struct {
	name     string
	header   *fits.Header
	addTo    *Extension
	resetVer bool
}

// Append places a value into the provider. Dispatch runs on the value's
// structural type, in fixed priority order: extension record, backing unit,
// table, single-extension slice, bare pixel array. The value lands as a new
// top-level record, an attached mask/variance/named payload (with AddTo), or
// a free-floating table.
func (p *Provider) Append(value any, opts AppendOptions) (any, error) {
	if u, ok := value.(*fits.Unit); ok && u.Kind == fits.Primary {
		return nil, errf(ErrKindDuplicate, "only one primary unit allowed")
	}
	if err := p.materialize(); err != nil {
		return nil, err
	}
	return p.append(value, appendArgs{
		name:     opts.Name,
		header:   opts.Header,
		addTo:    opts.AddTo,
		resetVer: true,
	})
}

func (p *Provider) append(value any, a appendArgs) (any, error) {
	switch v := value.(type) {
	case *Extension:
		return p.appendRecord(v, a)
	case *fits.Unit:
		return p.appendBackingUnit(v, a)
	case *fits.Table:
		return p.appendTable(v, a)
	case *Slice:
		return p.appendSliceValue(v, a)
	case *fits.Image:
		return p.appendArray(v, a)
	default:
		return nil, errf(ErrKindUnsupported, "don't know how to append a value of type %T", value)
	}
}

// appendArray places a bare pixel plane: a fresh top-level science record
// when no target is given, or the target's mask/variance/named payload.
func (p *Provider) appendArray(img *fits.Image, a appendArgs) (any, error) {
	if a.addTo == nil {
		name := a.name
		if name == "" {
			if a.header != nil {
				name = a.header.Str("EXTNAME", DefaultExtension)
			} else {
				name = DefaultExtension
			}
		}
		if name == maskExtName || name == varianceExtName {
			return nil, errf(ErrKindUnsupported,
				"%q needs to be associated to a %q extension", name, DefaultExtension)
		}
		hdr := a.header.Clone()
		if hdr == nil {
			hdr = fits.NewHeader()
		}
		hdr.Set("EXTNAME", name, "")
		return p.appendBackingUnit(fits.NewImageUnit(img, hdr), appendArgs{name: name, resetVer: a.resetVer})
	}

	if a.name == "" {
		return nil, errf(ErrKindMissingName, "can't append pixel planes to other objects without a name")
	}
	switch a.name {
	case DefaultExtension:
		return nil, errf(ErrKindUnsupported, "can't attach %q arrays to other objects", DefaultExtension)
	case maskExtName:
		a.addTo.mask = img
		return img, nil
	case varianceExtName:
		// The incoming values are variance; storage is stddev.
		u := NewVarianceUncertainty(img)
		a.addTo.uncertainty = u
		return u, nil
	default:
		a.addTo.setOther(a.name, img, a.header.Clone())
		return img, nil
	}
}

// appendBackingUnit routes a codec unit by its kind.
func (p *Provider) appendBackingUnit(u *fits.Unit, a appendArgs) (any, error) {
	switch u.Kind {
	case fits.Primary:
		return nil, errf(ErrKindDuplicate, "only one primary unit allowed")
	case fits.TableUnit:
		tbl := u.Table
		if tbl == nil {
			tbl = fits.NewTable()
		}
		tbl.SetHeader(u.Header)
		if a.name == "" {
			a.name = u.Name()
		}
		return p.appendTable(tbl, a)
	}

	name := a.name
	if name == "" {
		name = u.Name()
	}
	if name == maskExtName || name == varianceExtName || a.addTo != nil {
		return p.appendArray(u.Image, appendArgs{name: name, addTo: a.addTo})
	}

	hdr := u.Header
	if a.header != nil {
		hdr = a.header
	}
	if hdr == nil {
		hdr = fits.NewHeader()
	}
	if !hdr.Has("EXTNAME") {
		if name == "" {
			name = DefaultExtension
		}
		hdr.Set("EXTNAME", name, "")
	}
	ext := newExtension(hdr)
	ext.data = u.Image
	ext.ver = hdr.Int("EXTVER", -1)
	return p.appendRecord(ext, appendArgs{resetVer: a.resetVer})
}

// appendRecord installs a fully-formed record at the top level, keeping the
// header store in lockstep.
func (p *Provider) appendRecord(ext *Extension, a appendArgs) (any, error) {
	if a.addTo != nil {
		return nil, errf(ErrKindUnsupported, "records can only be appended at the top level")
	}
	hname := ext.header.Str("EXTNAME", DefaultExtension)
	if hname != DefaultExtension {
		return nil, errf(ErrKindUnsupported,
			"arbitrary image extensions can only be added in association to a %q", DefaultExtension)
	}

	// When lazy-loading, the header may already sit in the store; it must
	// then land at the matching position.
	pos := -1
	for i, h := range p.headers[1:] {
		if h == ext.header {
			pos = i
			break
		}
	}
	if pos >= 0 {
		assertStructural(pos == len(p.exts),
			"appending record whose header sits at position %d, expected %d", pos, len(p.exts))
	} else {
		p.headers = append(p.headers, ext.header)
	}

	if a.resetVer || ext.ver == -1 {
		ext.setVer(p.nextVer())
	}
	p.exts = append(p.exts, ext)
	p.checkLockstep()
	return ext, nil
}

// appendTable stores a table: free-floating (and exposed) at the top level,
// or as a named payload of the target record.
func (p *Provider) appendTable(tbl *fits.Table, a appendArgs) (any, error) {
	if a.header != nil {
		tbl.SetHeader(a.header.Clone())
	}
	name := a.name
	if name == "" {
		name = tbl.Header().Str("EXTNAME", "")
	}
	if name == "" {
		return nil, errf(ErrKindMissingName, "can't attach a table without a name")
	}
	tbl.Header().Set("EXTNAME", name, "")

	if a.addTo == nil {
		p.tables[name] = tbl
		p.exposed[name] = struct{}{}
		return tbl, nil
	}
	a.addTo.setOther(name, tbl, tbl.Header())
	return tbl, nil
}

// appendSliceValue deep-copies the record bound to a single-extension slice
// into a new top-level record with a fresh version.
func (p *Provider) appendSliceValue(s *Slice, a appendArgs) (any, error) {
	if !s.single {
		return nil, errf(ErrKindUnsupported, "cannot append slices that are not single")
	}
	if a.addTo != nil {
		return nil, errf(ErrKindUnsupported, "cannot append a slice to another record")
	}
	rec := s.record().deepCopy()
	if a.header != nil {
		rec.header = a.header.Clone()
	}
	return p.appendRecord(rec, appendArgs{resetVer: true})
}
