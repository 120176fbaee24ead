package mef

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrokit/mefkit/internal/testutil"
)

func keywordFixture(t *testing.T) *Provider {
	t.Helper()
	a := testutil.SciUnit(1, 2, 2)
	b := testutil.SciUnit(2, 2, 2)
	c := testutil.SciUnit(3, 2, 2)
	a.Header.Set("GAIN", 1.0, "e-/ADU")
	c.Header.Set("GAIN", 1.5, "e-/ADU")

	p, err := FromUnits(testutil.MEF(a, b, c), "")
	require.NoError(t, err)
	p.PHU().Set("INSTRUME", "GMOS-N", "instrument")
	return p
}

func TestPHUValue(t *testing.T) {
	p := keywordFixture(t)
	ks := p.PHUKeywords()

	v, err := ks.Value("INSTRUME")
	require.NoError(t, err)
	require.Equal(t, "GMOS-N", v)

	_, err = ks.Value("NOPE")
	var km *KeyMissingError
	require.ErrorAs(t, err, &km)
	require.Equal(t, "NOPE", km.Key)

	require.Equal(t, "dflt", ks.ValueDefault("NOPE", "dflt"))
}

func TestExtValuesFanOut(t *testing.T) {
	p := keywordFixture(t)
	ks, err := p.ExtKeywords()
	require.NoError(t, err)

	vals, err := ks.Values("EXTVER")
	require.NoError(t, err)
	require.Equal(t, []any{1, 2, 3}, vals)
}

func TestExtValuesPartialMiss(t *testing.T) {
	p := keywordFixture(t)
	ks, err := p.ExtKeywords()
	require.NoError(t, err)

	_, err = ks.Values("GAIN")
	var km *KeyMissingError
	require.ErrorAs(t, err, &km)
	require.Equal(t, []int{1}, km.MissingAt)
	require.Equal(t, []any{1.0, nil, 1.5}, km.Partial)

	vals := ks.ValuesDefault("GAIN", 0.0)
	require.Equal(t, []any{1.0, 0.0, 1.5}, vals)
}

func TestExtSetBroadcasts(t *testing.T) {
	p := keywordFixture(t)
	ks, err := p.ExtKeywords()
	require.NoError(t, err)

	ks.Set("BUNIT", "adu", "pixel units")
	vals, err := ks.Values("BUNIT")
	require.NoError(t, err)
	require.Equal(t, []any{"adu", "adu", "adu"}, vals)
}

func TestExtDelete(t *testing.T) {
	p := keywordFixture(t)
	ks, err := p.ExtKeywords()
	require.NoError(t, err)

	// Present in two of three headers: delete succeeds.
	require.NoError(t, ks.Delete("GAIN"))
	require.False(t, ks.Has("GAIN"))

	var km *KeyMissingError
	require.ErrorAs(t, ks.Delete("GAIN"), &km)
}

func TestSetCommentNeedsKeyEverywhere(t *testing.T) {
	p := keywordFixture(t)
	ks, err := p.ExtKeywords()
	require.NoError(t, err)

	var km *KeyMissingError
	require.ErrorAs(t, ks.SetComment("GAIN", "gain"), &km)

	ks.Set("GAIN", 2.0, "")
	require.NoError(t, ks.SetComment("GAIN", "gain"))
	comments, err := ks.Comments("GAIN")
	require.NoError(t, err)
	require.Equal(t, []string{"gain", "gain", "gain"}, comments)
}

func TestSingleViewCollapsesValues(t *testing.T) {
	p := keywordFixture(t)
	s, err := p.Ext(2)
	require.NoError(t, err)

	ks := s.ExtKeywords()
	v, err := ks.Value("GAIN")
	require.NoError(t, err)
	require.Equal(t, 1.5, v)
}

func TestNoExtensionsKeywordStore(t *testing.T) {
	p := New()
	_, err := p.ExtKeywords()
	require.Error(t, err)
}

func TestShowListsCards(t *testing.T) {
	p := keywordFixture(t)
	var sb strings.Builder
	p.PHUKeywords().Show(&sb)
	require.Contains(t, sb.String(), "INSTRUME= GMOS-N / instrument")
}
