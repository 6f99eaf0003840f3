package lv2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSubstringSet(t *testing.T) {
	sub, err := NewSubstringSet([]EdgeWord{1, 2, 3, 4, 5, 6}, 3)
	require.Nil(t, err, "Failed to build a valid set")
	require.Equal(t, int64(2), sub.Items())
	require.Equal(t, []EdgeWord{4, 5, 6}, sub.Key(1))

	_, err = NewSubstringSet([]EdgeWord{1, 2, 3, 4, 5}, 3)
	require.NotNil(t, err, "Ragged buffer must be rejected")

	_, err = NewSubstringSet([]EdgeWord{1}, 0)
	require.NotNil(t, err, "Zero-width records must be rejected")
}

func TestCompare(t *testing.T) {
	sub := SubstringSet{
		Words:        []EdgeWord{0, 5, 0, 7, 1, 0, 0, 5},
		WordsPerItem: 2,
	}

	require.Equal(t, -1, sub.Compare(0, 1), "{0,5} < {0,7}")
	require.Equal(t, 1, sub.Compare(2, 1), "{1,0} > {0,7}: word 0 dominates")
	require.Equal(t, 0, sub.Compare(0, 3), "Identical records must compare equal")
	require.Equal(t, 1, sub.Compare(1, 0))
}

func TestSlice(t *testing.T) {
	sub := RandomSubstrings(10, 2)
	mid := sub.Slice(3, 4)
	require.Equal(t, int64(4), mid.Items())
	require.Equal(t, sub.Key(3), mid.Key(0), "Slice must share the underlying records")
	require.Equal(t, sub.Key(6), mid.Key(3))
}

func TestCheckPermutation(t *testing.T) {
	sub := SubstringSet{Words: []EdgeWord{3, 1, 2}, WordsPerItem: 1}

	require.Nil(t, CheckPermutation(sub, []uint32{1, 2, 0}), "Valid permutation rejected")
	require.NotNil(t, CheckPermutation(sub, []uint32{0, 1, 2}), "Out-of-order permutation accepted")
	require.NotNil(t, CheckPermutation(sub, []uint32{1, 1, 0}), "Repeated index accepted")
	require.NotNil(t, CheckPermutation(sub, []uint32{1, 2, 7}), "Out-of-range index accepted")
	require.NotNil(t, CheckPermutation(sub, []uint32{1}), "Short permutation accepted")
}

func TestNextPow2(t *testing.T) {
	cases := map[int64]int64{0: 1, 1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1000: 1024, 1024: 1024}
	for in, want := range cases {
		require.Equal(t, want, nextPow2(in), "nextPow2(%v)", in)
	}
}

func TestRandomSubstringsReproducible(t *testing.T) {
	a := RandomSubstrings(100, 2)
	b := RandomSubstrings(100, 2)
	require.Equal(t, a.Words, b.Words, "Generator must be seeded deterministically")
}
