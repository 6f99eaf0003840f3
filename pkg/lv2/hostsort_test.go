package lv2

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// Reference permutation via the standard library's stable sort.
func stableReference(sub SubstringSet) []uint32 {
	perm := make([]uint32, sub.Items())
	for i := range perm {
		perm[i] = uint32(i)
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return sub.Compare(int64(perm[i]), int64(perm[j])) < 0
	})
	return perm
}

func TestHostSortScenario(t *testing.T) {
	// 4 single-word records with one duplicated key: the duplicate with the
	// smaller original index must come first.
	sub := SubstringSet{Words: []EdgeWord{5, 1, 4, 1}, WordsPerItem: 1}

	perm := make([]uint32, 4)
	require.Nil(t, SortHost(sub, perm), "Sort failed")
	require.Equal(t, []uint32{1, 3, 2, 0}, perm, "Wrong index-stable order")
}

func TestHostSortBoundaries(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		sub := SubstringSet{Words: []EdgeWord{}, WordsPerItem: 3}
		require.Nil(t, SortHost(sub, []uint32{}), "Empty sort should be a no-op")
	})

	t.Run("Single", func(t *testing.T) {
		sub := SubstringSet{Words: []EdgeWord{0xffffffff}, WordsPerItem: 1}
		perm := []uint32{99}
		require.Nil(t, SortHost(sub, perm), "Single-record sort failed")
		require.Equal(t, uint32(0), perm[0])
	})

	t.Run("ShortBuffer", func(t *testing.T) {
		sub := RandomSubstrings(10, 1)
		require.NotNil(t, SortHost(sub, make([]uint32, 5)), "Short buffer must be rejected")
	})
}

func TestHostSortSmall(t *testing.T) {
	// Below the insertion-sort cutoff
	sub := RandomSubstrings(insertionCutoff-3, 2)

	perm := make([]uint32, sub.Items())
	require.Nil(t, SortHost(sub, perm), "Sort failed")
	require.Nil(t, CheckPermutation(sub, perm), "Bad permutation")
	require.Equal(t, stableReference(sub), perm, "Disagrees with reference stable sort")
}

func TestHostSortMultiWord(t *testing.T) {
	sub := RandomSubstrings(5000, 3)

	perm := make([]uint32, sub.Items())
	require.Nil(t, SortHost(sub, perm), "Sort failed")
	require.Nil(t, CheckPermutation(sub, perm), "Bad permutation")
	require.Equal(t, stableReference(sub), perm, "Disagrees with reference stable sort")
}

func TestHostSortStability(t *testing.T) {
	// Only 4 distinct keys over many records forces lots of ties
	rngSub := RandomSubstrings(2000, 1)
	for i := range rngSub.Words {
		rngSub.Words[i] &= 0x3
	}

	perm := make([]uint32, rngSub.Items())
	require.Nil(t, SortHost(rngSub, perm), "Sort failed")
	require.Nil(t, CheckPermutation(rngSub, perm), "Stability violated")

	// Repeated runs must be bit-identical
	again := make([]uint32, rngSub.Items())
	require.Nil(t, SortHost(rngSub, again), "Sort failed")
	require.Equal(t, perm, again, "Sort is not reproducible")
}

func TestHostSortWordSignificance(t *testing.T) {
	// Word 0 is most significant: {1,0} must sort after {0,0xffffffff}
	sub := SubstringSet{
		Words:        []EdgeWord{1, 0, 0, 0xffffffff},
		WordsPerItem: 2,
	}
	perm := make([]uint32, 2)
	require.Nil(t, SortHost(sub, perm), "Sort failed")
	require.Equal(t, []uint32{1, 0}, perm, "Word 0 must dominate the comparison")
}
