package mef

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrokit/mefkit/fits"
	"github.com/astrokit/mefkit/internal/testutil"
)

func unitNames(units []*fits.Unit) []string {
	var out []string
	for _, u := range units {
		if u.Kind == fits.Primary {
			out = append(out, "PRIMARY")
			continue
		}
		out = append(out, u.Name())
	}
	return out
}

func TestPrepareUnitsGroupsByVersion(t *testing.T) {
	units := PrepareUnits(testutil.MEF(
		testutil.PlaneUnit("DQ", 2, 2, 2, 1),
		testutil.SciUnit(2, 2, 2),
		testutil.SciUnit(1, 2, 2),
		testutil.PlaneUnit("VAR", 1, 2, 2, 4),
	))
	require.Equal(t, []string{"PRIMARY", "SCI", "VAR", "SCI", "DQ"}, unitNames(units))
	require.Equal(t, 1, units[1].Ver())
	require.Equal(t, 2, units[3].Ver())
}

func TestPrepareUnitsDefaultsNameAndVersion(t *testing.T) {
	anon := fits.NewImageUnit(testutil.GradientImage(2, 2), nil)
	units := PrepareUnits(testutil.MEF(
		testutil.SciUnit(3, 2, 2),
		anon,
	))
	require.Equal(t, "SCI", anon.Name())
	require.Equal(t, 4, anon.Ver())
	// The freshly stamped unit sorts after the existing version.
	require.Same(t, anon, units[2])
}

func TestPrepareUnitsUnversionedTableSortsLast(t *testing.T) {
	units := PrepareUnits(testutil.MEF(
		testutil.TableUnit("REFCAT", 2),
		testutil.SciUnit(1, 2, 2),
	))
	require.Equal(t, []string{"PRIMARY", "SCI", "REFCAT"}, unitNames(units))
}

func TestPrepareUnitsPromotesSingleImage(t *testing.T) {
	hdr := fits.NewHeader()
	hdr.Set("SIMPLE", true, "")
	hdr.Set("EXTEND", false, "")
	hdr.Set("INSTRUME", "NIRI", "")
	primary := fits.NewPrimaryUnit(hdr)
	primary.Image = testutil.GradientImage(3, 3)

	units := PrepareUnits([]*fits.Unit{primary})
	require.Len(t, units, 2)
	require.Equal(t, fits.Primary, units[0].Kind)
	require.Nil(t, units[0].Image)

	sci := units[1]
	require.Equal(t, "SCI", sci.Name())
	require.Equal(t, 1, sci.Ver())
	require.NotNil(t, sci.Image)
	require.False(t, sci.Header.Has("SIMPLE"))
	require.False(t, sci.Header.Has("EXTEND"))
	require.Equal(t, "NIRI", sci.Header.Str("INSTRUME", ""))
}

func TestOpenIsLazy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lazy.fits")
	src := newTestProvider(t, threePlaneUnits())
	require.NoError(t, src.Write(path, false))

	p, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, stateUnmaterialized, p.state)
	require.Equal(t, 3, p.Len())
	require.Equal(t, "lazy.fits", p.Filename())

	// Header edits made before materialization must survive it.
	p.Headers()[1].Set("TRACKED", 99, "")

	exts, err := p.Extensions()
	require.NoError(t, err)
	require.Equal(t, stateMaterialized, p.state)
	require.Equal(t, 99, exts[0].Header().Int("TRACKED", -1))
	require.NotNil(t, exts[1].Mask())
}

func TestFromUnitsSeedsFilename(t *testing.T) {
	p, err := FromUnits(testutil.MEF(testutil.SciUnit(1, 2, 2)), "/data/raw/n001.fits")
	require.NoError(t, err)
	require.Equal(t, "n001.fits", p.Filename())
	require.Equal(t, "n001.fits", p.OrigFilename())
}
