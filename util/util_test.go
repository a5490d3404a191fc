package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSortedMapKeys(t *testing.T) {
	rq := require.New(t)
	rq.Equal([]int{2019, 2023, 2024}, SortedMapKeys(map[int]string{2024: "a", 2019: "b", 2023: "c"}))
	rq.Equal([]string{"HBL", "LUCK", "OGDC"}, SortedMapKeys(map[string]int{"OGDC": 1, "HBL": 2, "LUCK": 3}))
	rq.Empty(SortedMapKeys(map[string]int{}))
}

func TestTern(t *testing.T) {
	rq := require.New(t)
	rq.Equal("filer", Tern(true, "filer", "non-filer"))
	rq.Equal(2, Tern(false, 1, 2))
}

func TestAssertPanics(t *testing.T) {
	AssertsPanic = true
	require.PanicsWithValue(t, "bad 3", func() { Assertf(false, "bad %d", 3) })
	require.PanicsWithValue(t, "bad", func() { Assert(false, "bad") })
	require.NotPanics(t, func() { Assert(true, "fine") })
}
