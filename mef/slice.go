package mef

import (
	"github.com/astrokit/mefkit/fits"
)

// Slice is a non-owning view over a subset of a provider's extensions.
// Slices share state with the parent: mutations through a slice are visible
// through the provider and every other overlapping view. A single slice
// addresses exactly one extension and unlocks the per-extension operations;
// slicing it further is not allowed.
type Slice struct {
	p       *Provider
	mapping []int
	single  bool
}

// IsSingle reports whether the view addresses exactly one extension.
func (s *Slice) IsSingle() bool { return s.single }

// Len returns the number of extensions in view.
func (s *Slice) Len() int { return len(s.mapping) }

// Provider returns the parent the view maps into.
func (s *Slice) Provider() *Provider { return s.p }

func (s *Slice) record() *Extension { return s.p.exts[s.mapping[0]] }

// Record returns the one extension of a single view.
func (s *Slice) Record() (*Extension, error) {
	if !s.single {
		return nil, errf(ErrKindSingle, "only single views expose one record")
	}
	return s.record(), nil
}

// Records returns the mapped extensions in view order. The returned records
// are the provider's own, not copies.
func (s *Slice) Records() []*Extension {
	out := make([]*Extension, len(s.mapping))
	for i, n := range s.mapping {
		out[i] = s.p.exts[n]
	}
	return out
}

// Headers returns the primary header followed by the mapped extension
// headers. The pointers are shared with the parent provider.
func (s *Slice) Headers() []*fits.Header {
	out := make([]*fits.Header, 0, len(s.mapping)+1)
	out = append(out, s.p.headers[0])
	for _, n := range s.mapping {
		out = append(out, s.p.headers[n+1])
	}
	return out
}

// PHU returns the shared primary header.
func (s *Slice) PHU() *fits.Header { return s.p.headers[0] }

// Slice composes a further view through this one's mapping: index i of the
// result addresses extension mapping[indices[i]] of the parent.
func (s *Slice) Slice(indices ...int) (*Slice, error) {
	if s.single {
		return nil, errf(ErrKindNotSliceable, "single views cannot be sliced further")
	}
	idx, err := normalizeIndices(indices, len(s.mapping))
	if err != nil {
		return nil, err
	}
	composed := make([]int, len(idx))
	for i, n := range idx {
		composed[i] = s.mapping[n]
	}
	return &Slice{p: s.p, mapping: composed}, nil
}

// Ext returns a single view of the i-th extension in this view.
func (s *Slice) Ext(i int) (*Slice, error) {
	if s.single {
		return nil, errf(ErrKindNotSliceable, "single views cannot be sliced further")
	}
	idx, err := normalizeIndices([]int{i}, len(s.mapping))
	if err != nil {
		return nil, err
	}
	return &Slice{p: s.p, mapping: []int{s.mapping[idx[0]]}, single: true}, nil
}

// Slices returns one single view per extension in this view.
func (s *Slice) Slices() ([]*Slice, error) {
	if s.single {
		return nil, errf(ErrKindNotSliceable, "single views cannot be sliced further")
	}
	out := make([]*Slice, len(s.mapping))
	for i, n := range s.mapping {
		out[i] = &Slice{p: s.p, mapping: []int{n}, single: true}
	}
	return out, nil
}

// ExtverMap maps EXTVER to view-local index over the extensions in view.
func (s *Slice) ExtverMap() (map[int]int, error) {
	if s.single {
		return nil, errf(ErrKindSingle, "cannot map EXTVER on a single view")
	}
	return extverMap(s.Records()), nil
}

// Append attaches value to the record of a single view under the given
// name. Reserved names route to the mask and variance planes.
func (s *Slice) Append(value any, name string) (any, error) {
	if !s.single {
		return nil, errf(ErrKindUnsupported, "can only append to single views")
	}
	if name == "" {
		return nil, errf(ErrKindMissingName, "appending to a view needs a name")
	}
	return s.p.append(value, appendArgs{name: name, addTo: s.record()})
}

// GetNamed resolves a name against the view: the bound record's own payloads
// first for single views, then the provider's exposed names.
func (s *Slice) GetNamed(name string) (any, error) {
	if s.single {
		if v, ok := s.record().Other(name); ok {
			return v, nil
		}
	}
	return s.p.GetNamed(name)
}

// SetNamed stores value under name on the record of a single view.
func (s *Slice) SetNamed(name string, value any) error {
	if !s.single {
		return errf(ErrKindUnsupported, "can only set named payloads on single views")
	}
	_, err := s.p.append(value, appendArgs{name: name, addTo: s.record()})
	return err
}

// DeleteNamed removes the record's named payload of a single view.
func (s *Slice) DeleteNamed(name string) error {
	if !s.single {
		return errf(ErrKindUnsupported, "can only delete named payloads on single views")
	}
	if !s.record().DeleteOther(name) {
		return errf(ErrKindNotFound, "no payload named %q", name)
	}
	return nil
}

// Exposed lists the names reachable through the view: the provider's own
// plus, for single views, the bound record's payload names.
func (s *Slice) Exposed() ([]string, error) {
	names, err := s.p.Exposed()
	if err != nil {
		return nil, err
	}
	if !s.single {
		return names, nil
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	for _, n := range s.record().OtherNames() {
		set[n] = struct{}{}
	}
	return sortedNames(set), nil
}

// ExtKeywords returns a keyword store over the mapped extension headers.
// On single views lookups return plain values instead of fan-out lists.
func (s *Slice) ExtKeywords() *KeywordStore {
	hdrs := make([]*fits.Header, len(s.mapping))
	for i, n := range s.mapping {
		hdrs[i] = s.p.headers[n+1]
	}
	return newExtStore(hdrs, s.single)
}

// PHUKeywords returns a keyword store over the shared primary header.
func (s *Slice) PHUKeywords() *KeywordStore { return s.p.PHUKeywords() }

// Add adds operand to the extensions in view. See Provider.Add.
func (s *Slice) Add(operand any) error { return s.p.operate(opAdd, operand, s.mapping) }

// Subtract subtracts operand from the extensions in view.
func (s *Slice) Subtract(operand any) error { return s.p.operate(opSub, operand, s.mapping) }

// Multiply multiplies the extensions in view by operand.
func (s *Slice) Multiply(operand any) error { return s.p.operate(opMul, operand, s.mapping) }

// Divide divides the extensions in view by operand.
func (s *Slice) Divide(operand any) error { return s.p.operate(opDiv, operand, s.mapping) }

// Crop cuts the extensions in view down to the inclusive window.
func (s *Slice) Crop(x1, y1, x2, y2 int) error {
	return cropRecords(s.Records(), x1, y1, x2, y2)
}

// MaterializeSubset deep-copies the view into a brand-new provider.
func (s *Slice) MaterializeSubset() (*Provider, error) {
	return s.p.MaterializeSubset(s.mapping...)
}

// Path returns the parent provider's backing path.
func (s *Slice) Path() string { return s.p.Path() }

// Filename returns the parent provider's filename.
func (s *Slice) Filename() string { return s.p.Filename() }

// Table resolves a free-floating table by name through the parent.
func (s *Slice) Table(name string) (*fits.Table, error) { return s.p.Table(name) }
