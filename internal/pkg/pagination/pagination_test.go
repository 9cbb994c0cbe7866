package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClampsInputs(t *testing.T) {
	p := New(0, 0, 25)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 10, p.Limit)
	require.Equal(t, 3, p.Pages)
	require.Equal(t, 0, p.GetOffset())

	p = New(2, 500, 25)
	require.Equal(t, 100, p.GetLimit())
	require.Equal(t, 100, p.GetOffset())
}

func TestParseParam(t *testing.T) {
	require.Equal(t, 1, ParseParam("", 1))
	require.Equal(t, 20, ParseParam("abc", 20))
	require.Equal(t, 20, ParseParam("0", 20))
	require.Equal(t, 20, ParseParam("-5", 20))
	require.Equal(t, 7, ParseParam("7", 1))
}
