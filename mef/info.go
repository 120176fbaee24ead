package mef

import (
	"fmt"

	"github.com/astrokit/mefkit/fits"
)

// PlaneInfo describes one pixel plane of an extension.
type PlaneInfo struct {
	Content  string // science, mask, variance, or the payload name
	Dims     string
	DataType string
}

// ExtensionInfo summarizes one science extension for reporting.
type ExtensionInfo struct {
	Index  int
	Name   string
	Ver    int
	Planes []PlaneInfo
	Tables []string // per-extension table payloads
}

// TableInfo summarizes a free-floating table.
type TableInfo struct {
	Name string
	Rows int
	Cols int
}

// Report is the structural summary returned by Describe.
type Report struct {
	Path         string
	Filename     string
	OrigFilename string
	Extensions   []ExtensionInfo
	Tables       []TableInfo
}

// Describe materializes if needed and summarizes the provider's structure:
// per extension its pixel planes (science, mask, variance and named arrays)
// and table payloads, plus the free-floating tables.
func (p *Provider) Describe() (*Report, error) {
	if err := p.materialize(); err != nil {
		return nil, err
	}

	rep := &Report{
		Path:         p.path,
		Filename:     p.Filename(),
		OrigFilename: p.origFilename,
	}

	for i, e := range p.exts {
		info := ExtensionInfo{
			Index: i,
			Name:  e.header.Str("EXTNAME", DefaultExtension),
			Ver:   e.ver,
		}
		info.Planes = append(info.Planes, planeInfo("science", e.data))
		if sd := e.uncertainty.StdDev(); sd != nil {
			info.Planes = append(info.Planes, planeInfo("variance", sd))
		}
		if e.mask != nil {
			info.Planes = append(info.Planes, planeInfo("mask", e.mask))
		}
		for _, name := range e.otherNames {
			switch v := e.other[name].(type) {
			case *fits.Image:
				info.Planes = append(info.Planes, planeInfo(name, v))
			case *fits.Table:
				info.Tables = append(info.Tables, name)
			case *Extension:
				info.Planes = append(info.Planes, planeInfo(name, v.data))
			}
		}
		rep.Extensions = append(rep.Extensions, info)
	}

	for _, name := range sortedNames(tableNameSet(p.tables)) {
		tbl := p.tables[name]
		if tbl == nil {
			continue
		}
		rep.Tables = append(rep.Tables, TableInfo{Name: name, Rows: tbl.NRows(), Cols: tbl.NCols()})
	}
	return rep, nil
}

func planeInfo(content string, img *fits.Image) PlaneInfo {
	if img == nil {
		return PlaneInfo{Content: content, Dims: "-", DataType: "-"}
	}
	return PlaneInfo{
		Content:  content,
		Dims:     dimsString(img.Shape),
		DataType: bitpixName(img.BitPix),
	}
}

// dimsString renders a shape in row-major display order, slowest axis first.
func dimsString(shape []int) string {
	s := "("
	for i := len(shape) - 1; i >= 0; i-- {
		if len(s) > 1 {
			s += ", "
		}
		s += fmt.Sprint(shape[i])
	}
	return s + ")"
}

func bitpixName(bitpix int) string {
	switch bitpix {
	case 8:
		return "uint8"
	case 16:
		return "int16"
	case 32:
		return "int32"
	case 64:
		return "int64"
	case -32:
		return "float32"
	case -64:
		return "float64"
	}
	return fmt.Sprintf("bitpix(%d)", bitpix)
}
