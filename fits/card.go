package fits

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// CardLen is the fixed size of a single header card.
const CardLen = 80

// Card is a single header record. Value is one of nil, bool, int, float64 or
// string. Commentary keywords (COMMENT, HISTORY, blank) carry their text in
// Comment and a nil Value, and may repeat within a header.
type Card struct {
	Key     string
	Value   any
	Comment string
}

// IsCommentary reports whether the card belongs to a commentary class, i.e.
// it has no value field and its keyword may repeat.
func (c Card) IsCommentary() bool {
	return c.Key == "COMMENT" || c.Key == "HISTORY" || c.Key == ""
}

// latin1 decodes raw header bytes tolerantly. FITS mandates printable ASCII,
// but files in the wild carry 8-bit characters in string values and comments.
func latin1(b []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// parseCard decodes one 80-byte header line. It never fails: unparseable
// value fields degrade to a nil value, matching the tolerance of other
// readers of real-world files.
func parseCard(line []byte) Card {
	key := strings.TrimRight(string(line[:8]), " ")

	// Commentary cards and keys without a value indicator.
	if len(line) < 10 || line[8] != '=' || line[9] != ' ' {
		return Card{Key: key, Comment: strings.TrimSpace(latin1(line[8:]))}
	}

	rest := strings.TrimSpace(latin1(line[10:]))
	if rest == "" {
		return Card{Key: key}
	}

	if rest[0] == '\'' {
		val, tail, ok := parseQuoted(rest)
		if !ok {
			return Card{Key: key}
		}
		return Card{Key: key, Value: val, Comment: trimInlineComment(tail)}
	}

	value := rest
	comment := ""
	if j := strings.Index(rest, "/"); j != -1 {
		value = strings.TrimSpace(rest[:j])
		comment = strings.TrimSpace(rest[j+1:])
	}

	c := Card{Key: key, Comment: comment}
	if value == "" {
		return c
	}
	switch {
	case value == "T":
		c.Value = true
	case value == "F":
		c.Value = false
	default:
		// Fortran-style D exponents appear in older files.
		if strings.ContainsAny(value, ".DE") {
			f, err := strconv.ParseFloat(strings.Replace(value, "D", "E", 1), 64)
			if err == nil {
				c.Value = f
			}
		} else if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			c.Value = int(n)
		}
	}
	return c
}

// parseQuoted consumes a FITS quoted string ('' escapes a quote) and returns
// the value plus whatever follows the closing quote.
func parseQuoted(s string) (val, tail string, ok bool) {
	var buf strings.Builder
	i := 1
	for i < len(s) {
		ch := s[i]
		if ch != '\'' {
			buf.WriteByte(ch)
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '\'' {
			buf.WriteByte('\'')
			i += 2
			continue
		}
		// Trailing blanks inside the quotes are not significant.
		return strings.TrimRight(buf.String(), " "), s[i+1:], true
	}
	return "", "", false
}

func trimInlineComment(tail string) string {
	tail = strings.TrimSpace(tail)
	if strings.HasPrefix(tail, "/") {
		return strings.TrimSpace(tail[1:])
	}
	return ""
}

// formatCard encodes a card into exactly CardLen bytes.
func formatCard(c Card) []byte {
	var b strings.Builder

	if c.Key == "END" {
		b.WriteString("END")
	} else if c.IsCommentary() {
		b.WriteString(fmt.Sprintf("%-8s", c.Key))
		b.WriteString(c.Comment)
	} else {
		b.WriteString(fmt.Sprintf("%-8s= ", c.Key))
		b.WriteString(formatValue(c.Value))
		if c.Comment != "" {
			b.WriteString(" / ")
			b.WriteString(c.Comment)
		}
	}

	line := b.String()
	if len(line) > CardLen {
		line = line[:CardLen]
	}
	out := make([]byte, CardLen)
	for i := range out {
		out[i] = ' '
	}
	copy(out, line)
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return strings.Repeat(" ", 20)
	case bool:
		if x {
			return fmt.Sprintf("%20s", "T")
		}
		return fmt.Sprintf("%20s", "F")
	case int:
		return fmt.Sprintf("%20d", x)
	case int64:
		return fmt.Sprintf("%20d", x)
	case float64:
		s := strconv.FormatFloat(x, 'G', -1, 64)
		// A float value must stay recognizable as one on re-read.
		if !strings.ContainsAny(s, ".E") {
			s += "."
		}
		return fmt.Sprintf("%20s", s)
	case string:
		quoted := "'" + fmt.Sprintf("%-8s", strings.ReplaceAll(x, "'", "''")) + "'"
		if len(quoted) < 20 {
			quoted += strings.Repeat(" ", 20-len(quoted))
		}
		return quoted
	default:
		return fmt.Sprintf("%20v", x)
	}
}
