package fits

// UnitKind classifies a header/data unit.
type UnitKind int

const (
	Primary   UnitKind = iota // the file's first unit
	ImageUnit                 // XTENSION = IMAGE
	TableUnit                 // XTENSION = BINTABLE
)

func (k UnitKind) String() string {
	switch k {
	case Primary:
		return "PRIMARY"
	case ImageUnit:
		return "IMAGE"
	case TableUnit:
		return "BINTABLE"
	}
	return "UNKNOWN"
}

// Unit is one header/data pair of a MEF file. Image is set for pixel-bearing
// units, Table for binary tables; a payload-less unit (header-only read, or
// a dataless primary) has both nil.
type Unit struct {
	Kind   UnitKind
	Header *Header
	Image  *Image
	Table  *Table
}

// NewImageUnit wraps an image and its header as an extension unit.
func NewImageUnit(img *Image, hdr *Header) *Unit {
	if hdr == nil {
		hdr = NewHeader()
	}
	return &Unit{Kind: ImageUnit, Header: hdr, Image: img}
}

// NewTableUnit wraps a table as a BINTABLE extension unit.
func NewTableUnit(tbl *Table) *Unit {
	return &Unit{Kind: TableUnit, Header: tbl.Header(), Table: tbl}
}

// NewPrimaryUnit builds a primary unit around hdr (which may be nil).
func NewPrimaryUnit(hdr *Header) *Unit {
	if hdr == nil {
		hdr = NewHeader()
	}
	return &Unit{Kind: Primary, Header: hdr}
}

// Name returns the unit's EXTNAME, or "" when unnamed.
func (u *Unit) Name() string {
	return u.Header.Str("EXTNAME", "")
}

// Ver returns the unit's EXTVER, or -1 when unversioned.
func (u *Unit) Ver() int {
	return u.Header.Int("EXTVER", -1)
}

// SetName assigns EXTNAME.
func (u *Unit) SetName(name, comment string) {
	u.Header.Set("EXTNAME", name, comment)
}

// SetVer assigns EXTVER.
func (u *Unit) SetVer(ver int, comment string) {
	u.Header.Set("EXTVER", ver, comment)
}
