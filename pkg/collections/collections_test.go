package collections

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	id   int
	name string
}

func byName(i item) string { return i.name }
func byID(i item) int      { return i.id }

func TestDiff(t *testing.T) {
	existing := []item{{1, "a"}, {2, "b"}}

	ch := Diff(existing, []string{"b", "c"}, byName, byID)
	require.Equal(t, []string{"c"}, ch.NewItems)
	require.Equal(t, []int{1}, ch.RemovedIDs)
	require.Equal(t, []int{2}, ch.KeptIDs)
}

func TestDiff_UnchangedProducesNoChurn(t *testing.T) {
	existing := []item{{1, "a"}, {2, "b"}}
	ch := Diff(existing, []string{"b", "a"}, byName, byID)
	require.Empty(t, ch.NewItems)
	require.Empty(t, ch.RemovedIDs)
	require.Equal(t, []int{1, 2}, ch.KeptIDs)
}

func TestDiff_DuplicateDesiredKeys(t *testing.T) {
	ch := Diff(nil, []string{"x", "y", "x"}, byName, byID)
	require.Equal(t, []string{"x", "y"}, ch.NewItems)
	require.Empty(t, ch.KeptIDs)
}

func TestDiff_EmptyDesiredRemovesAll(t *testing.T) {
	existing := []item{{1, "a"}, {2, "b"}}
	ch := Diff(existing, []string{}, byName, byID)
	require.Equal(t, []int{1, 2}, ch.RemovedIDs)
}

func TestCountOccurrences(t *testing.T) {
	got := CountOccurrences([]string{"t", "u", "t", "t", "v", "u"})
	require.Equal(t, []Count[string]{{"t", 3}, {"u", 2}, {"v", 1}}, got)
	require.Empty(t, CountOccurrences[string](nil))
}

func TestUnique(t *testing.T) {
	require.Equal(t, []int{3, 1, 2}, Unique([]int{3, 1, 3, 2, 1}))
}
