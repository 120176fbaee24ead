package fits

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// BlockLen is the FITS block size; every header and data section is padded
// to a multiple of it.
const BlockLen = 2880

const cardsPerBlock = BlockLen / CardLen

// ErrNotFITS indicates the input does not start with a valid FITS header.
var ErrNotFITS = errors.New("fits: not a FITS file")

// ReadUnits decodes all units from r, payloads included.
func ReadUnits(r io.Reader) ([]*Unit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("fits: read: %w", err)
	}
	return decodeUnits(data, true)
}

// ReadFile decodes all units from the file at path. On unix platforms the
// file is mmapped for the duration of the decode; the mapping and descriptor
// are released before returning.
func ReadFile(path string) ([]*Unit, error) {
	data, done, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	defer done()
	return decodeUnits(data, true)
}

// ReadHeaders decodes only the headers from the file at path, skipping every
// data section. The returned units carry nil payloads.
func ReadHeaders(path string) ([]*Unit, error) {
	data, done, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	defer done()
	return decodeUnits(data, false)
}

type decoder struct {
	data []byte
	off  int
}

func (d *decoder) remaining() int { return len(d.data) - d.off }

func decodeUnits(data []byte, withPayload bool) ([]*Unit, error) {
	if len(data) < BlockLen || string(data[:6]) != "SIMPLE" {
		return nil, ErrNotFITS
	}

	d := &decoder{data: data}
	var units []*Unit
	for d.remaining() >= BlockLen {
		u, err := d.readUnit(len(units) == 0, withPayload)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// readUnit decodes one header plus its data section.
func (d *decoder) readUnit(first, withPayload bool) (*Unit, error) {
	hdr, err := d.readHeader()
	if err != nil {
		return nil, err
	}

	u := &Unit{Header: hdr}
	xten := hdr.Str("XTENSION", "")
	switch {
	case first:
		u.Kind = Primary
	case xten == "IMAGE":
		u.Kind = ImageUnit
	case xten == "BINTABLE":
		u.Kind = TableUnit
	default:
		return nil, fmt.Errorf("fits: unsupported extension type %q", xten)
	}

	naxis := hdr.Int("NAXIS", 0)
	shape := make([]int, naxis)
	n := 1
	for i := range shape {
		shape[i] = hdr.Int(fmt.Sprintf("NAXIS%d", i+1), 0)
		n *= shape[i]
	}

	if naxis == 0 || n == 0 {
		return u, nil
	}

	bitpix := hdr.Int("BITPIX", 8)
	size := n * abs(bitpix) / 8
	padded := pad(size)
	if d.remaining() < padded {
		return nil, fmt.Errorf("fits: truncated data section (%d of %d bytes)", d.remaining(), padded)
	}
	raw := d.data[d.off : d.off+size]
	d.off += padded

	if !withPayload {
		return u, nil
	}

	if u.Kind == TableUnit {
		tbl, err := decodeTable(hdr, raw)
		if err != nil {
			return nil, err
		}
		tbl.SetHeader(hdr)
		u.Table = tbl
		return u, nil
	}

	img, err := decodeImage(bitpix, shape, raw)
	if err != nil {
		return nil, err
	}
	u.Image = img
	return u, nil
}

// readHeader consumes 2880-byte blocks of 80-byte cards until END.
func (d *decoder) readHeader() (*Header, error) {
	hdr := NewHeader()
	for {
		if d.remaining() < BlockLen {
			return nil, errors.New("fits: header without END card")
		}
		block := d.data[d.off : d.off+BlockLen]
		d.off += BlockLen
		for i := 0; i < cardsPerBlock; i++ {
			line := block[i*CardLen : (i+1)*CardLen]
			c := parseCard(line)
			if c.Key == "END" {
				return hdr, nil
			}
			if c.Key == "" && c.Value == nil && c.Comment == "" {
				continue
			}
			hdr.Append(c)
		}
	}
}

func decodeImage(bitpix int, shape []int, raw []byte) (*Image, error) {
	img := NewImage(bitpix, shape...)
	n := img.Len()
	switch bitpix {
	case 8:
		for i := 0; i < n; i++ {
			img.Pix[i] = float64(raw[i])
		}
	case 16:
		for i := 0; i < n; i++ {
			img.Pix[i] = float64(int16(binary.BigEndian.Uint16(raw[2*i:])))
		}
	case 32:
		for i := 0; i < n; i++ {
			img.Pix[i] = float64(int32(binary.BigEndian.Uint32(raw[4*i:])))
		}
	case 64:
		for i := 0; i < n; i++ {
			img.Pix[i] = float64(int64(binary.BigEndian.Uint64(raw[8*i:])))
		}
	case -32:
		for i := 0; i < n; i++ {
			img.Pix[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[4*i:])))
		}
	case -64:
		for i := 0; i < n; i++ {
			img.Pix[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[8*i:]))
		}
	default:
		return nil, fmt.Errorf("fits: invalid BITPIX %d", bitpix)
	}
	return img, nil
}

func decodeTable(hdr *Header, raw []byte) (*Table, error) {
	rowW := hdr.Int("NAXIS1", 0)
	rows := hdr.Int("NAXIS2", 0)
	nfields := hdr.Int("TFIELDS", 0)

	tbl := &Table{}
	col := 0
	for i := 1; i <= nfields; i++ {
		form := hdr.Str(fmt.Sprintf("TFORM%d", i), "")
		repeat, code, err := parseForm(form)
		if err != nil {
			return nil, err
		}
		name := hdr.Str(fmt.Sprintf("TTYPE%d", i), fmt.Sprintf("COL%d", i))
		if code != 'A' && repeat != 1 {
			return nil, fmt.Errorf("fits: array cells (TFORM %q) are not supported", form)
		}

		c := &Column{Name: name}
		cellAt := func(row int) []byte { return raw[row*rowW+col:] }
		switch code {
		case 'A':
			c.Type = ColString
			c.Width = repeat
			c.Strings = make([]string, rows)
			for r := 0; r < rows; r++ {
				c.Strings[r] = strings.TrimRight(string(cellAt(r)[:repeat]), " \x00")
			}
			col += repeat
		case 'D':
			c.Type = ColFloat
			c.Floats = make([]float64, rows)
			for r := 0; r < rows; r++ {
				c.Floats[r] = math.Float64frombits(binary.BigEndian.Uint64(cellAt(r)))
			}
			col += 8
		case 'E':
			c.Type = ColFloat
			c.Floats = make([]float64, rows)
			for r := 0; r < rows; r++ {
				c.Floats[r] = float64(math.Float32frombits(binary.BigEndian.Uint32(cellAt(r))))
			}
			col += 4
		case 'K':
			c.Type = ColInt
			c.Ints = make([]int64, rows)
			for r := 0; r < rows; r++ {
				c.Ints[r] = int64(binary.BigEndian.Uint64(cellAt(r)))
			}
			col += 8
		case 'J':
			c.Type = ColInt
			c.Ints = make([]int64, rows)
			for r := 0; r < rows; r++ {
				c.Ints[r] = int64(int32(binary.BigEndian.Uint32(cellAt(r))))
			}
			col += 4
		case 'I':
			c.Type = ColInt
			c.Ints = make([]int64, rows)
			for r := 0; r < rows; r++ {
				c.Ints[r] = int64(int16(binary.BigEndian.Uint16(cellAt(r))))
			}
			col += 2
		default:
			return nil, fmt.Errorf("fits: unsupported TFORM code %q", string(code))
		}
		tbl.Cols = append(tbl.Cols, c)
	}
	if col > rowW {
		return nil, fmt.Errorf("fits: table row overflow (%d > NAXIS1 %d)", col, rowW)
	}
	return tbl, nil
}

func pad(n int) int {
	if rem := n % BlockLen; rem != 0 {
		return n + BlockLen - rem
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
