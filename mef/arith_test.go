package mef

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrokit/mefkit/internal/testutil"
)

func arithFixture(t *testing.T, withPlanes bool) *Provider {
	t.Helper()
	units := testutil.MEF(
		testutil.SciUnit(1, 2, 2),
		testutil.SciUnit(2, 2, 2),
	)
	if withPlanes {
		units = append(units,
			testutil.PlaneUnit("VAR", 1, 2, 2, 4),
			testutil.PlaneUnit("DQ", 1, 2, 2, 1),
		)
	}
	return newTestProvider(t, units)
}

func TestScalarArithmetic(t *testing.T) {
	p := arithFixture(t, false)
	require.NoError(t, p.Add(10))
	require.NoError(t, p.Multiply(2.0))
	require.NoError(t, p.Subtract(20))
	require.NoError(t, p.Divide(2))

	// Gradient pixel i: ((i+10)*2-20)/2 = i.
	for _, e := range p.exts {
		for i, v := range e.Data().Pix {
			require.InDelta(t, float64(i), v, 1e-9)
		}
	}
}

func TestScalarScalesUncertainty(t *testing.T) {
	p := arithFixture(t, true)
	require.NoError(t, p.Multiply(3))

	sd := p.exts[0].Uncertainty().StdDev()
	require.InDelta(t, 6.0, sd.Pix[0], 1e-9) // sqrt(4)*3

	require.NoError(t, p.Add(100))
	require.InDelta(t, 6.0, sd.Pix[0], 1e-9) // additive shift leaves it alone
}

func TestProviderOperandPairsInOrder(t *testing.T) {
	p := arithFixture(t, false)
	q := arithFixture(t, false)
	require.NoError(t, p.Add(q))

	for _, e := range p.exts {
		for i, v := range e.Data().Pix {
			require.InDelta(t, 2*float64(i), v, 1e-9)
		}
	}
}

func TestOperandCountMismatch(t *testing.T) {
	p := arithFixture(t, false)
	q := newTestProvider(t, testutil.MEF(testutil.SciUnit(1, 2, 2)))
	require.ErrorIs(t, p.Add(q), ErrValueMismatch)
}

func TestShapeMismatchMutatesNothing(t *testing.T) {
	p := arithFixture(t, false)
	q := newTestProvider(t, testutil.MEF(
		testutil.SciUnit(1, 2, 2),
		testutil.SciUnit(2, 3, 3),
	))
	before := append([]float64(nil), p.exts[0].Data().Pix...)

	require.ErrorIs(t, p.Add(q), ErrValueMismatch)
	require.Equal(t, before, p.exts[0].Data().Pix)
}

func TestSingleSliceBroadcasts(t *testing.T) {
	p := arithFixture(t, false)
	q := newTestProvider(t, testutil.MEF(testutil.SciUnit(1, 2, 2)))
	one, err := q.Ext(0)
	require.NoError(t, err)

	require.NoError(t, p.Subtract(one))
	for _, e := range p.exts {
		for _, v := range e.Data().Pix {
			require.InDelta(t, 0.0, v, 1e-9)
		}
	}
}

func TestMaskCombinesBitwise(t *testing.T) {
	p := arithFixture(t, true) // DQ = 1 on ext 0
	q := newTestProvider(t, testutil.MEF(
		testutil.SciUnit(1, 2, 2),
		testutil.SciUnit(2, 2, 2),
		testutil.PlaneUnit("DQ", 1, 2, 2, 2),
		testutil.PlaneUnit("DQ", 2, 2, 2, 4),
	))
	require.NoError(t, p.Add(q))

	require.Equal(t, 3.0, p.exts[0].Mask().Pix[0]) // 1|2
	require.Equal(t, 4.0, p.exts[1].Mask().Pix[0]) // none|4
}

func TestUncertaintyAddsInQuadrature(t *testing.T) {
	p := arithFixture(t, true) // var 4 on ext 0
	q := newTestProvider(t, testutil.MEF(
		testutil.SciUnit(1, 2, 2),
		testutil.SciUnit(2, 2, 2),
		testutil.PlaneUnit("VAR", 1, 2, 2, 9),
	))
	require.NoError(t, p.Add(q))

	sd := p.exts[0].Uncertainty().StdDev()
	require.InDelta(t, math.Sqrt(13), sd.Pix[0], 1e-9) // sqrt(2^2 + 3^2)
}

func TestRelativeUncertaintyOnMultiply(t *testing.T) {
	p := newTestProvider(t, testutil.MEF(
		testutil.PlaneUnit("SCI", 1, 2, 2, 10),
		testutil.PlaneUnit("VAR", 1, 2, 2, 4),
	))
	q := newTestProvider(t, testutil.MEF(
		testutil.PlaneUnit("SCI", 1, 2, 2, 5),
		testutil.PlaneUnit("VAR", 1, 2, 2, 1),
	))
	require.NoError(t, p.Multiply(q))

	require.InDelta(t, 50.0, p.exts[0].Data().Pix[0], 1e-9)
	// 50 * hypot(2/10, 1/5) = 50 * sqrt(0.08)
	sd := p.exts[0].Uncertainty().StdDev()
	require.InDelta(t, 50*math.Sqrt(0.08), sd.Pix[0], 1e-9)
}

func TestArithmeticMergesTables(t *testing.T) {
	p := arithFixture(t, false)
	q := arithFixture(t, false)
	_, err := q.Append(testutil.Catalog("REFCAT", 2), AppendOptions{Name: "REFCAT"})
	require.NoError(t, err)
	_, err = p.Append(testutil.Catalog("MDF", 1), AppendOptions{Name: "MDF"})
	require.NoError(t, err)

	require.NoError(t, p.Add(q))

	names, err := p.TableNames()
	require.NoError(t, err)
	require.Equal(t, []string{"MDF", "REFCAT"}, names)

	// The merged table is a copy, not shared state.
	merged, err := p.Table("REFCAT")
	require.NoError(t, err)
	orig, err := q.Table("REFCAT")
	require.NoError(t, err)
	require.NotSame(t, orig, merged)
}

func TestSliceScopedArithmetic(t *testing.T) {
	p := arithFixture(t, false)
	s, err := p.Ext(1)
	require.NoError(t, err)
	require.NoError(t, s.Add(100))

	require.InDelta(t, 0.0, p.exts[0].Data().Pix[0], 1e-9)
	require.InDelta(t, 100.0, p.exts[1].Data().Pix[0], 1e-9)
}

func TestUnsupportedOperand(t *testing.T) {
	p := arithFixture(t, false)
	require.ErrorIs(t, p.Add("nope"), ErrUnsupportedStructure)
}
