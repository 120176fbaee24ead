package mef

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/astrokit/mefkit/internal/testutil"
)

func TestSetFilenameRejectsAbsolute(t *testing.T) {
	p := newTestProvider(t, testutil.MEF(testutil.SciUnit(1, 2, 2)))
	require.NoError(t, p.SetPath("/data/n001.fits"))
	require.Error(t, p.SetFilename("/other/n002.fits"))
	require.NoError(t, p.SetFilename("n002.fits"))
	require.Equal(t, filepath.Join("/data", "n002.fits"), p.Path())
}

func TestUpdateFilenameAddsSuffix(t *testing.T) {
	p := newTestProvider(t, testutil.MEF(testutil.SciUnit(1, 2, 2)))
	require.NoError(t, p.SetPath("/data/n001.fits"))

	require.NoError(t, p.UpdateFilename("", "_flat", false))
	require.Equal(t, "n001_flat.fits", p.Filename())

	require.NoError(t, p.UpdateFilename("tmp_", "", false))
	require.Equal(t, "tmp_n001_flat.fits", p.Filename())
}

func TestUpdateFilenameStripRestoresOriginal(t *testing.T) {
	p := newTestProvider(t, testutil.MEF(testutil.SciUnit(1, 2, 2)))
	require.NoError(t, p.SetPath("/data/n001.fits"))

	require.NoError(t, p.UpdateFilename("", "_bias", false))
	require.NoError(t, p.UpdateFilename("", "_flat", true))
	require.Equal(t, "n001_flat.fits", p.Filename())

	// Stripping records the original name in the PHU once.
	v, ok := p.PHU().Get("ORIGNAME")
	require.True(t, ok)
	require.Equal(t, "n001.fits", v)

	// A later strip honors the recorded keyword even after renames.
	require.NoError(t, p.SetFilename("something_else.fits"))
	require.NoError(t, p.UpdateFilename("", "_dark", true))
	require.Equal(t, "n001_dark.fits", p.Filename())
}

func TestUpdateFilenameDefaultsExtension(t *testing.T) {
	p := newTestProvider(t, testutil.MEF(testutil.SciUnit(1, 2, 2)))
	require.NoError(t, p.SetPath("/data/n001"))
	require.NoError(t, p.UpdateFilename("", "_out", false))
	require.Equal(t, "n001_out.fits", p.Filename())
}
