package fits

import (
	"fmt"
	"strconv"
	"strings"
)

// ColType enumerates the supported binary-table column types.
type ColType int

const (
	ColFloat  ColType = iota // TFORM D, float64
	ColInt                   // TFORM K, int64
	ColString                // TFORM wA, fixed-width string
)

// Column is one field of a binary table. Exactly one of Floats, Ints or
// Strings is populated, per Type. Width only matters for string columns.
type Column struct {
	Name    string
	Type    ColType
	Width   int
	Floats  []float64
	Ints    []int64
	Strings []string
}

func (c *Column) rows() int {
	switch c.Type {
	case ColFloat:
		return len(c.Floats)
	case ColInt:
		return len(c.Ints)
	default:
		return len(c.Strings)
	}
}

func (c *Column) form() string {
	switch c.Type {
	case ColFloat:
		return "D"
	case ColInt:
		return "K"
	default:
		return fmt.Sprintf("%dA", c.Width)
	}
}

func (c *Column) byteWidth() int {
	if c.Type == ColString {
		return c.Width
	}
	return 8
}

// Table is a binary table: named, typed columns of equal length, with an
// optional header carried along for round-trips.
type Table struct {
	hdr  *Header
	Cols []*Column
}

// NewTable builds a table over the given columns.
func NewTable(cols ...*Column) *Table {
	return &Table{Cols: cols}
}

// NRows returns the row count (0 for an empty table).
func (t *Table) NRows() int {
	if len(t.Cols) == 0 {
		return 0
	}
	return t.Cols[0].rows()
}

// NCols returns the column count.
func (t *Table) NCols() int { return len(t.Cols) }

// Col returns the named column.
func (t *Table) Col(name string) (*Column, bool) {
	for _, c := range t.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// SetHeader attaches hdr as the table's bound header.
func (t *Table) SetHeader(hdr *Header) { t.hdr = hdr }

// Header returns the bound header, synthesizing the structural TTYPE/TFORM
// description when none has been attached yet.
func (t *Table) Header() *Header {
	if t.hdr == nil {
		h := NewHeader()
		h.Set("TFIELDS", len(t.Cols), "")
		for i, c := range t.Cols {
			h.Set(fmt.Sprintf("TTYPE%d", i+1), c.Name, "")
			h.Set(fmt.Sprintf("TFORM%d", i+1), c.form(), "")
		}
		t.hdr = h
	}
	return t.hdr
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{hdr: t.hdr.Clone()}
	for _, c := range t.Cols {
		nc := &Column{Name: c.Name, Type: c.Type, Width: c.Width}
		nc.Floats = append([]float64(nil), c.Floats...)
		nc.Ints = append([]int64(nil), c.Ints...)
		nc.Strings = append([]string(nil), c.Strings...)
		out.Cols = append(out.Cols, nc)
	}
	return out
}

// rowWidth is the byte width of one table row (NAXIS1).
func (t *Table) rowWidth() int {
	w := 0
	for _, c := range t.Cols {
		w += c.byteWidth()
	}
	return w
}

// parseForm splits a TFORM value into repeat count and type code.
func parseForm(form string) (repeat int, code byte, err error) {
	j := strings.IndexAny(form, "ABCDEIJKLMPQX")
	if j == -1 {
		return 0, 0, fmt.Errorf("fits: invalid TFORM %q", form)
	}
	repeat = 1
	if j > 0 {
		r, perr := strconv.Atoi(form[:j])
		if perr != nil {
			return 0, 0, fmt.Errorf("fits: invalid TFORM repeat in %q", form)
		}
		repeat = r
	}
	return repeat, form[j], nil
}
