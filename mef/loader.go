package mef

import (
	"fmt"
	"math"
	"sort"

	"github.com/astrokit/mefkit/fits"
)

// Source produces the backing units a lazy provider materializes from.
type Source interface {
	Units() ([]*fits.Unit, error)
}

// PathSource reads units back from a file on demand.
type PathSource struct {
	Path string
}

func (s *PathSource) Units() ([]*fits.Unit, error) {
	units, err := fits.ReadFile(s.Path)
	if err != nil {
		return nil, &Error{Kind: ErrKindFile, Msg: "reading " + s.Path, Err: err}
	}
	return PrepareUnits(units), nil
}

// UnitSource serves an in-memory unit list.
type UnitSource struct {
	units []*fits.Unit
}

func (s *UnitSource) Units() ([]*fits.Unit, error) { return s.units, nil }

// Open maps a file's structure without decoding pixel payloads. The returned
// provider holds captured headers only; the first data access materializes
// the full contents from disk.
func Open(path string) (*Provider, error) {
	units, err := fits.ReadHeaders(path)
	if err != nil {
		return nil, &Error{Kind: ErrKindFile, Msg: "reading " + path, Err: err}
	}
	units = PrepareUnits(units)

	p := &Provider{
		state:   stateUnmaterialized,
		source:  &PathSource{Path: path},
		tables:  make(map[string]*fits.Table),
		exposed: make(map[string]struct{}),
	}
	p.setHeaders(units)
	if err := p.SetPath(path); err != nil {
		return nil, err
	}
	return p, nil
}

// FromUnits builds a fully materialized provider from an in-memory unit
// list. path, when non-empty, seeds the provider's filename bookkeeping.
func FromUnits(units []*fits.Unit, path string) (*Provider, error) {
	units = PrepareUnits(units)

	p := &Provider{
		state:   stateUnmaterialized,
		source:  &UnitSource{units: units},
		tables:  make(map[string]*fits.Table),
		exposed: make(map[string]struct{}),
	}
	p.setHeaders(units)
	if path != "" {
		if err := p.SetPath(path); err != nil {
			return nil, err
		}
	}
	if err := p.materialize(); err != nil {
		return nil, err
	}
	return p, nil
}

// PrepareUnits normalizes a decoded unit list into canonical form:
//
//   - a lone image in the primary unit is split into a bare primary plus a
//     SCI/1 extension carrying the pixels;
//   - extension units get their EXTNAME (default SCI) and EXTVER stamped,
//     versions auto-incrementing from the highest one seen;
//   - units are stably sorted so SCI planes come first within a version,
//     followed by their associated planes, with unversioned units last.
func PrepareUnits(units []*fits.Unit) []*fits.Unit {
	if len(units) == 0 {
		return units
	}

	out := make([]*fits.Unit, 0, len(units)+1)
	if len(units) == 1 && units[0].Kind == fits.Primary && primaryHasPixels(units[0]) {
		// A single-image file: keep the header as the primary and move
		// the pixels into a science extension of their own.
		ehdr := units[0].Header.Clone()
		ehdr.Delete("SIMPLE")
		ehdr.Delete("EXTEND")
		ehdr.Set("EXTNAME", DefaultExtension, "")
		ehdr.Set("EXTVER", 1, "")
		out = append(out, fits.NewPrimaryUnit(units[0].Header))
		out = append(out, fits.NewImageUnit(units[0].Image, ehdr))
	} else {
		out = append(out, units...)

		highest := 0
		for _, u := range out {
			if u.Kind == fits.Primary {
				continue
			}
			if u.Name() != "" && u.Ver() > highest {
				highest = u.Ver()
			}
		}
		for _, u := range out {
			if u.Kind != fits.ImageUnit {
				continue
			}
			if u.Name() == "" {
				u.SetName(DefaultExtension, "added on read")
			}
			if u.Ver() == -1 {
				highest++
				u.SetVer(highest, "added on read")
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		vi, ni := compKey(out[i])
		vj, nj := compKey(out[j])
		if vi != vj {
			return vi < vj
		}
		return ni < nj
	})
	return out
}

// primaryHasPixels reports whether the primary unit carries a data section,
// working from the header alone so the header-only read path promotes the
// same way the full read does.
func primaryHasPixels(u *fits.Unit) bool {
	if u.Image != nil {
		return true
	}
	naxis := u.Header.Int("NAXIS", 0)
	if naxis == 0 {
		return false
	}
	for i := 1; i <= naxis; i++ {
		if u.Header.Int(fmt.Sprintf("NAXIS%d", i), 0) == 0 {
			return false
		}
	}
	return true
}

// compKey orders units by (version, decorated name). The primary unit sorts
// before everything; unversioned units sort last within the name ordering,
// and the science name sorts before its associated planes.
func compKey(u *fits.Unit) (int64, string) {
	if u.Kind == fits.Primary {
		return -1, ""
	}
	ver := int64(u.Ver())
	if ver == -1 {
		ver = math.MaxUint32
	}
	name := u.Name()
	switch {
	case name == "":
		name = "zzzz"
	case name != DefaultExtension:
		name = "z" + name
	}
	return ver, name
}
