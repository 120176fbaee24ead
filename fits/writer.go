package fits

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// ErrFileExists indicates the destination exists and overwriting was not
// requested.
var ErrFileExists = errors.New("fits: destination file exists")

// WriteOptions controls WriteFile behavior.
type WriteOptions struct {
	// Overwrite replaces an existing destination instead of failing.
	Overwrite bool
}

// WriteUnits encodes units to w in file order.
func WriteUnits(w io.Writer, units []*Unit) error {
	data, err := encodeUnits(units)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("fits: write: %w", err)
	}
	return nil
}

// WriteFile persists units at path atomically: temp file in the same
// directory, data sync, then rename.
func WriteFile(path string, units []*Unit, opts WriteOptions) error {
	if !opts.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		}
	}

	data, err := encodeUnits(units)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mefkit-tmp-*")
	if err != nil {
		return fmt.Errorf("fits: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("fits: write temp file: %w", err)
	}
	if err := flushFile(tmp); err != nil {
		return fmt.Errorf("fits: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fits: close temp file: %w", err)
	}
	tmp = nil

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("fits: rename temp file: %w", err)
	}
	return nil
}

func encodeUnits(units []*Unit) ([]byte, error) {
	var buf bytes.Buffer
	for i, u := range units {
		if err := encodeUnit(&buf, u, i == 0, len(units) > 1); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeUnit(buf *bytes.Buffer, u *Unit, first, mef bool) error {
	if first != (u.Kind == Primary) {
		return fmt.Errorf("fits: primary unit out of place (kind %s at index 0=%v)", u.Kind, first)
	}

	cards, err := structuralCards(u, mef)
	if err != nil {
		return err
	}
	if u.Header != nil {
		for _, c := range u.Header.Cards() {
			if reservedKey(c.Key) {
				continue
			}
			cards = append(cards, c)
		}
	}
	cards = append(cards, Card{Key: "END"})

	writeCards(buf, cards)

	switch {
	case u.Image != nil:
		writeImage(buf, u.Image)
	case u.Table != nil:
		writeTable(buf, u.Table)
	}
	return nil
}

// structuralCards builds the mandatory leading cards for a unit, derived
// from the payload rather than trusted from the stored header.
func structuralCards(u *Unit, mef bool) ([]Card, error) {
	var cards []Card
	switch u.Kind {
	case Primary:
		cards = append(cards, Card{Key: "SIMPLE", Value: true, Comment: "conforms to FITS standard"})
		cards = append(cards, bitpixNaxisCards(u.Image)...)
		if mef {
			cards = append(cards, Card{Key: "EXTEND", Value: true})
		}
	case ImageUnit:
		cards = append(cards, Card{Key: "XTENSION", Value: "IMAGE", Comment: "Image extension"})
		cards = append(cards, bitpixNaxisCards(u.Image)...)
		cards = append(cards,
			Card{Key: "PCOUNT", Value: 0},
			Card{Key: "GCOUNT", Value: 1},
		)
	case TableUnit:
		if u.Table == nil {
			return nil, errors.New("fits: BINTABLE unit without table payload")
		}
		cards = append(cards,
			Card{Key: "XTENSION", Value: "BINTABLE", Comment: "Binary table extension"},
			Card{Key: "BITPIX", Value: 8},
			Card{Key: "NAXIS", Value: 2},
			Card{Key: "NAXIS1", Value: u.Table.rowWidth()},
			Card{Key: "NAXIS2", Value: u.Table.NRows()},
			Card{Key: "PCOUNT", Value: 0},
			Card{Key: "GCOUNT", Value: 1},
			Card{Key: "TFIELDS", Value: len(u.Table.Cols)},
		)
		for i, c := range u.Table.Cols {
			cards = append(cards,
				Card{Key: fmt.Sprintf("TTYPE%d", i+1), Value: c.Name},
				Card{Key: fmt.Sprintf("TFORM%d", i+1), Value: c.form()},
			)
		}
	default:
		return nil, fmt.Errorf("fits: unknown unit kind %d", u.Kind)
	}
	return cards, nil
}

func bitpixNaxisCards(img *Image) []Card {
	if img == nil {
		return []Card{
			{Key: "BITPIX", Value: 8},
			{Key: "NAXIS", Value: 0},
		}
	}
	cards := []Card{
		{Key: "BITPIX", Value: img.BitPix},
		{Key: "NAXIS", Value: len(img.Shape)},
	}
	for i, s := range img.Shape {
		cards = append(cards, Card{Key: fmt.Sprintf("NAXIS%d", i+1), Value: s})
	}
	return cards
}

// reservedKey reports whether the writer owns this keyword and regenerates
// it from the payload.
func reservedKey(key string) bool {
	switch key {
	case "SIMPLE", "XTENSION", "BITPIX", "NAXIS", "EXTEND", "PCOUNT", "GCOUNT", "TFIELDS", "END":
		return true
	}
	for _, prefix := range []string{"NAXIS", "TFORM", "TTYPE"} {
		if strings.HasPrefix(key, prefix) && isDigits(key[len(prefix):]) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func writeCards(buf *bytes.Buffer, cards []Card) {
	for _, c := range cards {
		buf.Write(formatCard(c))
	}
	padWith(buf, len(cards)*CardLen, ' ')
}

func writeImage(buf *bytes.Buffer, img *Image) {
	n := img.Len()
	size := n * abs(img.BitPix) / 8
	var scratch [8]byte
	for i := 0; i < n; i++ {
		v := img.Pix[i]
		switch img.BitPix {
		case 8:
			buf.WriteByte(byte(int64(math.Round(v))))
		case 16:
			binary.BigEndian.PutUint16(scratch[:2], uint16(int16(math.Round(v))))
			buf.Write(scratch[:2])
		case 32:
			binary.BigEndian.PutUint32(scratch[:4], uint32(int32(math.Round(v))))
			buf.Write(scratch[:4])
		case 64:
			binary.BigEndian.PutUint64(scratch[:8], uint64(int64(math.Round(v))))
			buf.Write(scratch[:8])
		case -32:
			binary.BigEndian.PutUint32(scratch[:4], math.Float32bits(float32(v)))
			buf.Write(scratch[:4])
		default: // -64
			binary.BigEndian.PutUint64(scratch[:8], math.Float64bits(v))
			buf.Write(scratch[:8])
		}
	}
	padWith(buf, size, 0)
}

func writeTable(buf *bytes.Buffer, tbl *Table) {
	rows := tbl.NRows()
	size := rows * tbl.rowWidth()
	var scratch [8]byte
	for r := 0; r < rows; r++ {
		for _, c := range tbl.Cols {
			switch c.Type {
			case ColFloat:
				binary.BigEndian.PutUint64(scratch[:8], math.Float64bits(c.Floats[r]))
				buf.Write(scratch[:8])
			case ColInt:
				binary.BigEndian.PutUint64(scratch[:8], uint64(c.Ints[r]))
				buf.Write(scratch[:8])
			case ColString:
				s := c.Strings[r]
				if len(s) > c.Width {
					s = s[:c.Width]
				}
				buf.WriteString(s)
				for i := len(s); i < c.Width; i++ {
					buf.WriteByte(' ')
				}
			}
		}
	}
	padWith(buf, size, 0)
}

// padWith fills buf up to the next block boundary, assuming written bytes of
// payload were just emitted.
func padWith(buf *bytes.Buffer, written int, fill byte) {
	for i := written; i%BlockLen != 0; i++ {
		buf.WriteByte(fill)
	}
}
