package mef

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/astrokit/mefkit/fits"
)

// DefaultExtension is the EXTNAME anchoring science planes.
const DefaultExtension = "SCI"

const (
	maskExtName     = "DQ"
	varianceExtName = "VAR"
	origNameKeyword = "ORIGNAME"
)

// assocSkip lists extension names never attached as auxiliary payloads of a
// science plane, even when their EXTVER matches.
var assocSkip = map[string]struct{}{
	DefaultExtension: {},
	"REFCAT":         {},
	"MDF":            {},
}

// matState tracks the materialization lifecycle. Transitions only move
// forward: Unmaterialized -> Materializing -> Materialized; a failure during
// Materializing falls back to Unmaterialized with no partial state left
// behind.
type matState int

const (
	stateUnmaterialized matState = iota
	stateMaterializing
	stateMaterialized
)

// Provider is the in-memory representation of a MEF file: a header store
// (primary header plus one header per science extension, always in
// lockstep), the ordered science extensions, and free-floating tables.
//
// A Provider opened from a path holds headers only until the first operation
// that needs pixel data; that operation triggers a one-time materialization
// from the backing source.
type Provider struct {
	state  matState
	source Source

	path         string
	origFilename string

	// headers[0] is the PHU; headers[i+1] is bound to exts[i]. The two move
	// in lockstep on every append and delete.
	headers []*fits.Header
	exts    []*Extension

	tables  map[string]*fits.Table
	exposed map[string]struct{}
}

// New returns an empty, materialized Provider with a blank primary header.
func New() *Provider {
	return &Provider{
		state:   stateMaterialized,
		headers: []*fits.Header{fits.NewHeader()},
		tables:  map[string]*fits.Table{},
		exposed: map[string]struct{}{},
	}
}

// Len returns the number of science extensions. It never triggers
// materialization: the header store already knows the count.
func (p *Provider) Len() int { return len(p.headers) - 1 }

// PHU returns the primary header.
func (p *Provider) PHU() *fits.Header { return p.headers[0] }

// Headers returns the header store: primary first, then one header per
// extension.
func (p *Provider) Headers() []*fits.Header { return p.headers }

// Extensions materializes if needed and returns the science records.
func (p *Provider) Extensions() ([]*Extension, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	return p.exts, nil
}

// checkLockstep asserts the core structural invariant after any mutation of
// the header store or the extension list.
func (p *Provider) checkLockstep() {
	assertStructural(len(p.headers) == len(p.exts)+1,
		"header store has %d entries for %d extensions", len(p.headers), len(p.exts))
}

// materialize performs the one-time transition from header-only knowledge to
// fully populated state. Re-entrant calls during the transition are no-ops;
// failure restores the Unmaterialized state untouched.
func (p *Provider) materialize() error {
	if p.state != stateUnmaterialized {
		return nil
	}
	p.state = stateMaterializing

	units, err := p.source.Units()
	if err != nil {
		p.state = stateUnmaterialized
		return fmt.Errorf("mef: materialize: %w", err)
	}
	if len(units) > 0 {
		units = PrepareUnits(units)
	}
	if err := p.resetMembers(units); err != nil {
		p.state = stateUnmaterialized
		return err
	}
	p.state = stateMaterialized
	p.source = nil
	return nil
}

// setHeaders captures the header store from a normalized unit list before
// any payload is read: the primary header plus the headers of every
// default-named pixel unit, in file order. Table units are registered as
// free-table placeholders so their names are exposed pre-materialization.
func (p *Provider) setHeaders(units []*fits.Unit) {
	headers := []*fits.Header{units[0].Header}
	for _, u := range units[1:] {
		if u.Kind != fits.ImageUnit {
			continue
		}
		if name := u.Name(); name == DefaultExtension || name == "" {
			headers = append(headers, u.Header)
		}
	}
	p.headers = headers

	for _, u := range units {
		if u.Kind != fits.TableUnit {
			continue
		}
		name := u.Name()
		if name == "" || name == "OBJCAT" {
			continue
		}
		p.tables[name] = nil
		p.exposed[name] = struct{}{}
	}
}

// resetMembers rebuilds the extension records and free tables from a
// normalized backing unit list, reusing the already-captured headers so that
// pre-materialization header edits survive the reload. An empty unit list is
// the legal empty state, not an error.
func (p *Provider) resetMembers(units []*fits.Unit) error {
	exts := []*Extension{}
	tables := map[string]*fits.Table{}
	exposed := map[string]struct{}{}

	if len(units) == 0 {
		p.exts = exts
		p.tables = tables
		p.exposed = exposed
		p.checkLockstep()
		return nil
	}

	seen := map[*fits.Unit]bool{units[0]: true}

	pos := 0
	for _, u := range units[1:] {
		if u.Kind != fits.ImageUnit || u.Name() != DefaultExtension {
			continue
		}
		pos++
		assertStructural(pos < len(p.headers),
			"science unit #%d has no captured header (store holds %d)", pos, len(p.headers))
		seen[u] = true

		// The header captured at load time is canonical; the user may have
		// edited it since.
		hdr := p.headers[pos]
		ver := hdr.Int("EXTVER", -1)

		ext := newExtension(hdr)
		ext.data = u.Image
		if ver == -1 {
			ext.setVer(maxVer(exts) + 1)
			ver = ext.ver
		} else {
			ext.ver = ver
		}
		exts = append(exts, ext)

		for _, assoc := range units {
			if seen[assoc] || assoc.Ver() != ver {
				continue
			}
			name := assoc.Name()
			if _, skip := assocSkip[name]; skip {
				continue
			}
			seen[assoc] = true
			attachUnit(ext, name, assoc)
		}
	}

	for _, u := range units {
		if seen[u] {
			continue
		}
		name := u.Name()
		if u.Kind == fits.TableUnit {
			// A nameless table has nothing to be exposed under.
			if name == "" {
				continue
			}
			if _, dup := tables[name]; dup {
				continue
			}
			tbl := u.Table
			if tbl == nil {
				tbl = fits.NewTable()
			}
			tbl.SetHeader(u.Header)
			tables[name] = tbl
			exposed[name] = struct{}{}
			continue
		}
		return errf(ErrKindUnsupported,
			"pixel extension %q (ver %d) is not associated to any %q plane", name, u.Ver(), DefaultExtension)
	}

	p.exts = exts
	p.tables = tables
	p.exposed = exposed
	p.checkLockstep()
	return nil
}

// attachUnit places an associated backing unit into its record slot: DQ is
// the mask, VAR is variance (stored as stddev), anything else a named
// payload.
func attachUnit(ext *Extension, name string, u *fits.Unit) {
	switch {
	case name == maskExtName && u.Image != nil:
		ext.mask = u.Image
	case name == varianceExtName && u.Image != nil:
		ext.uncertainty = NewVarianceUncertainty(u.Image)
	case u.Table != nil:
		tbl := u.Table
		tbl.SetHeader(u.Header)
		ext.setOther(name, tbl, u.Header)
	default:
		ext.setOther(name, u.Image, u.Header)
	}
}

func maxVer(exts []*Extension) int {
	max := 0
	for _, e := range exts {
		if e.ver > max {
			max = e.ver
		}
	}
	return max
}

// nextVer returns the version an explicit-version-less top-level append gets.
func (p *Provider) nextVer() int {
	return maxVer(p.exts) + 1
}

// Ext returns a single-extension view of extension i. Negative indices
// resolve from the end.
func (p *Provider) Ext(i int) (*Slice, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	idx, err := normalizeIndices([]int{i}, p.Len())
	if err != nil {
		return nil, err
	}
	return &Slice{p: p, mapping: idx, single: true}, nil
}

// Slice returns a multi-extension view over the given indices, in the order
// given.
func (p *Provider) Slice(indices ...int) (*Slice, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	idx, err := normalizeIndices(indices, p.Len())
	if err != nil {
		return nil, err
	}
	return &Slice{p: p, mapping: idx}, nil
}

// SliceRange returns a multi-extension view over [start, stop), clamping
// out-of-range bounds.
func (p *Provider) SliceRange(start, stop int) (*Slice, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	return &Slice{p: p, mapping: rangeIndices(start, stop, p.Len())}, nil
}

// Slices returns one single-extension view per extension, in order.
func (p *Provider) Slices() ([]*Slice, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	out := make([]*Slice, p.Len())
	for i := range out {
		out[i] = &Slice{p: p, mapping: []int{i}, single: true}
	}
	return out, nil
}

// ExtByVer returns the single-extension view addressed by EXTVER.
func (p *Provider) ExtByVer(ver int) (*Slice, error) {
	m, err := p.ExtverMap()
	if err != nil {
		return nil, err
	}
	idx, ok := m[ver]
	if !ok {
		return nil, errf(ErrKindIndex, "EXTVER %d not found", ver)
	}
	return p.Ext(idx)
}

// Delete removes extension i and its header store entry atomically. Only
// whole top-level records can be deleted.
func (p *Provider) Delete(i int) error {
	if err := p.materialize(); err != nil {
		return err
	}
	idx, err := normalizeIndices([]int{i}, p.Len())
	if err != nil {
		return err
	}
	n := idx[0]
	p.headers = append(p.headers[:n+1], p.headers[n+2:]...)
	p.exts = append(p.exts[:n], p.exts[n+1:]...)
	p.checkLockstep()
	return nil
}

// ExtverMap maps each extension's EXTVER to the index used to access it.
func (p *Provider) ExtverMap() (map[int]int, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	return extverMap(p.exts), nil
}

func extverMap(exts []*Extension) map[int]int {
	out := make(map[int]int, len(exts))
	for i, e := range exts {
		out[e.ver] = i
	}
	return out
}

// SetAlias names extension i so it resolves through GetNamed.
func (p *Provider) SetAlias(i int, name string) error {
	if err := p.materialize(); err != nil {
		return err
	}
	idx, err := normalizeIndices([]int{i}, p.Len())
	if err != nil {
		return err
	}
	p.exts[idx[0]].name = name
	return nil
}

// GetNamed resolves name against the free tables and extension aliases.
// The payload is a *fits.Table or an *Extension.
func (p *Provider) GetNamed(name string) (any, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	if tbl, ok := p.tables[name]; ok {
		return tbl, nil
	}
	for _, e := range p.exts {
		if e.name == name {
			return e, nil
		}
	}
	return nil, errf(ErrKindNotFound, "%q not found in this object", name)
}

// SetNamed appends value under name at the top level; see Append for the
// dispatch rules.
func (p *Provider) SetNamed(name string, value any) error {
	_, err := p.Append(value, AppendOptions{Name: name})
	return err
}

// DeleteNamed removes a free-floating table. Aliases and science planes are
// deleted positionally via Delete, not by name.
func (p *Provider) DeleteNamed(name string) error {
	if err := p.materialize(); err != nil {
		return err
	}
	if _, ok := p.tables[name]; !ok {
		return errf(ErrKindNotFound, "%q is not a global table for this instance", name)
	}
	delete(p.tables, name)
	delete(p.exposed, name)
	return nil
}

// Exposed returns the names reachable through GetNamed: free tables plus
// extension aliases, sorted.
func (p *Provider) Exposed() ([]string, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(p.exposed))
	for name := range p.exposed {
		set[name] = struct{}{}
	}
	for _, e := range p.exts {
		if e.name != "" {
			set[e.name] = struct{}{}
		}
	}
	return sortedNames(set), nil
}

// TableNames returns the free-floating table names, sorted.
func (p *Provider) TableNames() ([]string, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(p.tables))
	for name := range p.tables {
		set[name] = struct{}{}
	}
	return sortedNames(set), nil
}

// Table returns a free-floating table by name.
func (p *Provider) Table(name string) (*fits.Table, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	tbl, ok := p.tables[name]
	if !ok {
		return nil, errf(ErrKindNotFound, "table %q not found", name)
	}
	return tbl, nil
}

// PHUKeywords returns a keyword store over the primary header.
func (p *Provider) PHUKeywords() *KeywordStore {
	return newPHUStore(p.headers[0])
}

// ExtKeywords returns a keyword store fanning out over every extension
// header.
func (p *Provider) ExtKeywords() (*KeywordStore, error) {
	if p.Len() == 0 {
		return nil, errf(ErrKindIndex, "there are no %s extensions", DefaultExtension)
	}
	return newExtStore(p.headers[1:], false), nil
}

// MaterializeSubset builds a brand-new, value-owned Provider restricted to
// the mapped indices (all extensions when none are given). Free tables are
// carried over; extension versions are reassigned in subset order.
func (p *Provider) MaterializeSubset(indices ...int) (*Provider, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		indices = make([]int, p.Len())
		for i := range indices {
			indices[i] = i
		}
	}
	idx, err := normalizeIndices(indices, p.Len())
	if err != nil {
		return nil, err
	}

	np := New()
	np.headers[0] = p.headers[0].Clone()
	for _, n := range idx {
		if _, err := np.append(p.exts[n].deepCopy(), appendArgs{resetVer: true}); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedNames(tableNameSet(p.tables)) {
		if p.tables[name] == nil {
			continue
		}
		if _, err := np.append(p.tables[name].Clone(), appendArgs{name: name}); err != nil {
			return nil, err
		}
	}
	return np, nil
}

func tableNameSet(tables map[string]*fits.Table) map[string]struct{} {
	set := make(map[string]struct{}, len(tables))
	for name := range tables {
		set[name] = struct{}{}
	}
	return set
}

// Crop cuts every extension down to the inclusive rectangle (x1,y1)-(x2,y2),
// including masks, uncertainties and any same-shaped auxiliary arrays.
func (p *Provider) Crop(x1, y1, x2, y2 int) error {
	if err := p.materialize(); err != nil {
		return err
	}
	return cropRecords(p.exts, x1, y1, x2, y2)
}

func cropRecords(exts []*Extension, x1, y1, x2, y2 int) error {
	// Validate every window first so a failure leaves no extension cropped.
	for _, e := range exts {
		if e.data == nil || len(e.data.Shape) != 2 {
			return errf(ErrKindUnsupported, "crop needs 2D pixel planes")
		}
		if x1 < 0 || y1 < 0 || x2 >= e.data.Shape[0] || y2 >= e.data.Shape[1] || x2 < x1 || y2 < y1 {
			return errf(ErrKindIndex, "crop window (%d,%d)-(%d,%d) outside %v", x1, y1, x2, y2, e.data.Shape)
		}
	}
	for _, e := range exts {
		shape := append([]int(nil), e.data.Shape...)
		e.data.Crop(x1, y1, x2, y2)
		if sd := e.uncertainty.StdDev(); sd != nil {
			sd.Crop(x1, y1, x2, y2)
		}
		if e.mask != nil {
			e.mask.Crop(x1, y1, x2, y2)
		}
		for _, name := range e.otherNames {
			if img, ok := e.other[name].(*fits.Image); ok && sameShape(img.Shape, shape) {
				img.Crop(x1, y1, x2, y2)
			}
		}
	}
	return nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Path returns the backing file path, or "".
func (p *Provider) Path() string { return p.path }

// SetPath rebinds the provider to a new destination path. Assigning a new
// path forces materialization first, so that pixel data is not later read
// from the wrong file.
func (p *Provider) SetPath(path string) error {
	if p.path != "" {
		if err := p.materialize(); err != nil {
			return err
		}
	} else if path != "" {
		p.origFilename = filepath.Base(path)
	}
	p.path = path
	return nil
}

// Filename returns the basename of the current path, or "".
func (p *Provider) Filename() string {
	if p.path == "" {
		return ""
	}
	return filepath.Base(p.path)
}

// SetFilename renames the file within its current directory.
func (p *Provider) SetFilename(name string) error {
	if filepath.IsAbs(name) {
		return errf(ErrKindFile, "cannot set the filename to an absolute path")
	}
	if p.path == "" {
		abs, err := filepath.Abs(name)
		if err != nil {
			return errf(ErrKindFile, "resolve %q: %v", name, err)
		}
		return p.SetPath(abs)
	}
	return p.SetPath(filepath.Join(filepath.Dir(p.path), name))
}

// OrigFilename returns the basename the provider was first bound to.
func (p *Provider) OrigFilename() string { return p.origFilename }

// UpdateFilename derives a new filename by prefix/suffix manipulation of the
// current basename. With strip set, all prior suffixing is discarded in
// favor of the original name recorded in the PHU under ORIGNAME; the keyword
// is written the first time stripping occurs.
func (p *Provider) UpdateFilename(prefix, suffix string, strip bool) error {
	var base string
	if strip {
		if v, ok := p.PHU().Get(origNameKeyword); ok {
			base, _ = v.(string)
		} else {
			base = p.origFilename
			p.PHU().Set(origNameKeyword, base, "Original filename prior to processing")
		}
	} else {
		base = p.Filename()
	}

	name, ext := splitExt(base)
	if ext == "" {
		ext = ".fits"
	}
	return p.SetFilename(prefix + name + suffix + ext)
}

func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)], ext
}

// Write serializes the provider and persists it at path. An existing
// destination fails with ErrFileExists unless overwrite is set.
func (p *Provider) Write(path string, overwrite bool) error {
	if path == "" {
		path = p.path
	}
	if path == "" {
		return errf(ErrKindFile, "a file name needs to be specified")
	}
	units, err := p.ToUnits()
	if err != nil {
		return err
	}
	if err := fits.WriteFile(path, units, fits.WriteOptions{Overwrite: overwrite}); err != nil {
		if errors.Is(err, fits.ErrFileExists) {
			return err
		}
		return &Error{Kind: ErrKindFile, Msg: "write failed", Err: err}
	}
	return nil
}
