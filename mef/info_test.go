package mef

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	p := newTestProvider(t, threePlaneUnits())
	rep, err := p.Describe()
	require.NoError(t, err)
	require.Len(t, rep.Extensions, 3)

	first := rep.Extensions[0]
	require.Equal(t, "SCI", first.Name)
	require.Equal(t, 1, first.Ver)
	require.Equal(t, "science", first.Planes[0].Content)
	require.Equal(t, "(4, 4)", first.Planes[0].Dims)
	require.Equal(t, "float64", first.Planes[0].DataType)

	second := rep.Extensions[1]
	planes := make(map[string]bool)
	for _, pl := range second.Planes {
		planes[pl.Content] = true
	}
	require.True(t, planes["mask"])

	require.Len(t, rep.Tables, 2)
	require.Equal(t, "OBJCAT", rep.Tables[0].Name)
	require.Equal(t, 2, rep.Tables[0].Rows)
	require.Equal(t, "REFCAT", rep.Tables[1].Name)
	require.Equal(t, 3, rep.Tables[1].Rows)
}
