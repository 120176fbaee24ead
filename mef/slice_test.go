package mef

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrokit/mefkit/internal/testutil"
)

func sliceFixture(t *testing.T) *Provider {
	t.Helper()
	return newTestProvider(t, testutil.MEF(
		testutil.SciUnit(1, 4, 4),
		testutil.SciUnit(2, 4, 4),
		testutil.SciUnit(3, 4, 4),
		testutil.SciUnit(4, 4, 4),
	))
}

func TestSlicesShareState(t *testing.T) {
	p := sliceFixture(t)
	views, err := p.Slices()
	require.NoError(t, err)
	require.Len(t, views, 4)

	for i, v := range views {
		require.True(t, v.IsSingle())
		rec, err := v.Record()
		require.NoError(t, err)
		require.Same(t, p.exts[i], rec)
		// The view's extension header is the provider's own, not a copy.
		require.Same(t, p.headers[i+1], v.Headers()[1])
		require.Same(t, p.headers[0], v.PHU())
	}
}

func TestSliceRangeClamping(t *testing.T) {
	p := sliceFixture(t)

	vers := func(s *Slice) []int {
		out := make([]int, 0, s.Len())
		for _, rec := range s.Records() {
			out = append(out, rec.Ver())
		}
		return out
	}

	s, err := p.SliceRange(1, 3)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, vers(s))

	// Negative bounds count from the end; overshoot clamps.
	s, err = p.SliceRange(-2, 99)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, vers(s))

	s, err = p.SliceRange(-99, 2)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, vers(s))

	// An inverted or out-of-range window is an empty view, not an error.
	s, err = p.SliceRange(3, 1)
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())

	s, err = p.SliceRange(9, 12)
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestSliceComposition(t *testing.T) {
	p := sliceFixture(t)
	outer, err := p.Slice(3, 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, outer.Len())

	inner, err := outer.Slice(2, 0)
	require.NoError(t, err)
	recs := inner.Records()
	require.Equal(t, 3, recs[0].Ver())
	require.Equal(t, 4, recs[1].Ver())

	one, err := outer.Ext(-1)
	require.NoError(t, err)
	rec, err := one.Record()
	require.NoError(t, err)
	require.Equal(t, 3, rec.Ver())
}

func TestSingleSliceIsNotSliceable(t *testing.T) {
	p := sliceFixture(t)
	s, err := p.Ext(0)
	require.NoError(t, err)

	_, err = s.Slice(0)
	require.ErrorIs(t, err, ErrNotSliceable)
	_, err = s.Ext(0)
	require.ErrorIs(t, err, ErrNotSliceable)
	_, err = s.Slices()
	require.ErrorIs(t, err, ErrNotSliceable)
}

func TestExtverMapInvalidOnSingle(t *testing.T) {
	p := sliceFixture(t)
	s, err := p.Ext(0)
	require.NoError(t, err)
	_, err = s.ExtverMap()
	require.ErrorIs(t, err, ErrInvalidOnSingle)

	multi, err := p.Slice(2, 3)
	require.NoError(t, err)
	m, err := multi.ExtverMap()
	require.NoError(t, err)
	require.Equal(t, map[int]int{3: 0, 4: 1}, m)
}

func TestRecordOnMultiSlice(t *testing.T) {
	p := sliceFixture(t)
	s, err := p.Slice(0, 1)
	require.NoError(t, err)
	_, err = s.Record()
	require.ErrorIs(t, err, ErrInvalidOnSingle)
}

func TestSliceAppendNeedsName(t *testing.T) {
	p := sliceFixture(t)
	s, err := p.Ext(1)
	require.NoError(t, err)

	_, err = s.Append(testutil.ConstImage(4, 4, 1), "")
	require.ErrorIs(t, err, ErrMissingName)

	_, err = s.Append(testutil.ConstImage(4, 4, 1), "DQ")
	require.NoError(t, err)
	rec, err := s.Record()
	require.NoError(t, err)
	require.NotNil(t, rec.Mask())

	// The provider stays the same length; the payload attached to the record.
	require.Equal(t, 4, p.Len())
}

func TestSliceNamedPayloads(t *testing.T) {
	p := sliceFixture(t)
	s, err := p.Ext(0)
	require.NoError(t, err)

	require.NoError(t, s.SetNamed("PROFILE", testutil.ConstImage(4, 4, 7)))
	got, err := s.GetNamed("PROFILE")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Other views don't see a record-local payload.
	other, err := p.Ext(1)
	require.NoError(t, err)
	_, err = other.GetNamed("PROFILE")
	require.ErrorIs(t, err, ErrNotFound)

	names, err := s.Exposed()
	require.NoError(t, err)
	require.Contains(t, names, "PROFILE")

	require.NoError(t, s.DeleteNamed("PROFILE"))
	require.ErrorIs(t, s.DeleteNamed("PROFILE"), ErrNotFound)
}

func TestSliceMaterializeSubset(t *testing.T) {
	p := sliceFixture(t)
	s, err := p.Slice(1, 3)
	require.NoError(t, err)

	sub, err := s.MaterializeSubset()
	require.NoError(t, err)
	require.Equal(t, 2, sub.Len())

	exts, err := sub.Extensions()
	require.NoError(t, err)
	exts[0].Data().Pix[0] = -1
	require.NotEqual(t, -1.0, p.exts[1].Data().Pix[0])
}

func TestSliceCrop(t *testing.T) {
	p := sliceFixture(t)
	s, err := p.Ext(2)
	require.NoError(t, err)
	require.NoError(t, s.Crop(0, 0, 1, 1))

	require.Equal(t, []int{2, 2}, p.exts[2].Data().Shape)
	require.Equal(t, []int{4, 4}, p.exts[0].Data().Shape)
}
