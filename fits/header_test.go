package fits

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func padCard(s string) []byte {
	b := make([]byte, CardLen)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

func TestParseCardString(t *testing.T) {
	c := parseCard(padCard("EXTNAME = 'SCI     '           / extension name"))
	require.Equal(t, "EXTNAME", c.Key)
	require.Equal(t, "SCI", c.Value)
	require.Equal(t, "extension name", c.Comment)
}

func TestParseCardQuoteEscape(t *testing.T) {
	c := parseCard(padCard("OBJECT  = 'O''NEILL'"))
	require.Equal(t, "O'NEILL", c.Value)
}

func TestParseCardNumbers(t *testing.T) {
	c := parseCard(padCard("NAXIS1  =                 2048"))
	require.Equal(t, 2048, c.Value)

	c = parseCard(padCard("EXPTIME =                 12.5 / seconds"))
	require.Equal(t, 12.5, c.Value)
	require.Equal(t, "seconds", c.Comment)

	c = parseCard(padCard("GAIN    =              1.23D+02"))
	require.Equal(t, 123.0, c.Value)
}

func TestParseCardBool(t *testing.T) {
	c := parseCard(padCard("SIMPLE  =                    T / conforms"))
	require.Equal(t, true, c.Value)

	c = parseCard(padCard("EXTEND  =                    F"))
	require.Equal(t, false, c.Value)
}

func TestParseCardTolerates8BitBytes(t *testing.T) {
	line := padCard("OBSERVER= 'M")
	line[12] = 0xFC // u-umlaut in Latin-1
	copy(line[13:], "ller'")
	c := parseCard(line)
	require.Equal(t, "Müller", c.Value)
}

func TestParseCardCommentary(t *testing.T) {
	c := parseCard(padCard("COMMENT this space intentionally left blank"))
	require.Equal(t, "COMMENT", c.Key)
	require.True(t, c.IsCommentary())
}

func TestFormatCardRoundTrip(t *testing.T) {
	for _, c := range []Card{
		{Key: "EXTNAME", Value: "SCI", Comment: "extension name"},
		{Key: "EXTVER", Value: 3},
		{Key: "EXPTIME", Value: 12.5, Comment: "seconds"},
		{Key: "SIMPLE", Value: true},
	} {
		line := formatCard(c)
		require.Len(t, line, CardLen)
		back := parseCard(line)
		require.Equal(t, c.Key, back.Key)
		require.Equal(t, c.Value, back.Value)
		require.Equal(t, c.Comment, back.Comment)
	}
}

func TestHeaderSetReplacesInPlace(t *testing.T) {
	h := NewHeader()
	h.Set("A", 1, "")
	h.Set("B", 2, "")
	h.Set("A", 10, "updated")

	require.Equal(t, []string{"A", "B"}, h.Keys())
	v, ok := h.Get("A")
	require.True(t, ok)
	require.Equal(t, 10, v)
}

func TestHeaderCommentaryAlwaysAppends(t *testing.T) {
	h := NewHeader()
	h.Set("HISTORY", "first pass", "")
	h.Set("HISTORY", "second pass", "")
	require.Equal(t, 2, h.Len())
}

func TestHeaderDelete(t *testing.T) {
	h := NewHeader()
	h.Set("A", 1, "")
	require.True(t, h.Delete("A"))
	require.False(t, h.Delete("A"))
	require.False(t, h.Has("A"))
}

func TestHeaderTypedAccessors(t *testing.T) {
	h := NewHeader()
	h.Set("EXTVER", 4, "")
	h.Set("EXTNAME", "DQ", "")

	require.Equal(t, 4, h.Int("EXTVER", -1))
	require.Equal(t, -1, h.Int("NOPE", -1))
	require.Equal(t, "DQ", h.Str("EXTNAME", ""))
	require.Equal(t, "SCI", h.Str("NOPE", "SCI"))
}

func TestHeaderCloneIsIndependent(t *testing.T) {
	h := NewHeader()
	h.Set("A", 1, "")
	c := h.Clone()
	c.Set("A", 2, "")
	require.Equal(t, 1, h.Int("A", 0))
	require.Equal(t, 2, c.Int("A", 0))
}
