package lv2

// LV2 substrings are fixed-width records of packed edge words: the k-mer
// payload plus bucket rank and direction bits, produced upstream by the
// bucket partitioner. The sort engine never interprets the packing, it only
// compares records word-wise with word 0 most significant.

import (
	"math/rand"

	"github.com/pkg/errors"
)

// EdgeWord is one machine word of a packed substring record.
type EdgeWord = uint32

// sentinelIdx pads device permutations to a power of two. It compares
// greater than any real index so padding collects at the top.
const sentinelIdx = uint32(0xffffffff)

// SubstringSet is a bounds-carrying view over a contiguous buffer of
// fixed-width records. Record i occupies Words[i*WordsPerItem up to
// (i+1)*WordsPerItem), record-major. The buffer is owned by the caller and
// is never modified by the sort.
type SubstringSet struct {
	Words        []EdgeWord
	WordsPerItem int
}

// NewSubstringSet validates that words holds a whole number of records.
func NewSubstringSet(words []EdgeWord, wordsPerItem int) (SubstringSet, error) {
	if wordsPerItem < 1 {
		return SubstringSet{}, errors.Errorf("invalid words per substring: %v", wordsPerItem)
	}
	if len(words)%wordsPerItem != 0 {
		return SubstringSet{}, errors.Errorf("buffer of %v words is not a whole number of %v-word records",
			len(words), wordsPerItem)
	}
	return SubstringSet{Words: words, WordsPerItem: wordsPerItem}, nil
}

// Items returns the number of records in the set.
func (self SubstringSet) Items() int64 {
	if self.WordsPerItem == 0 {
		return 0
	}
	return int64(len(self.Words) / self.WordsPerItem)
}

// Key returns the words of record i as a subslice (no copy).
func (self SubstringSet) Key(i int64) []EdgeWord {
	start := i * int64(self.WordsPerItem)
	return self.Words[start : start+int64(self.WordsPerItem)]
}

// Compare orders records a and b word-wise, word 0 most significant.
// Returns -1, 0 or 1.
func (self SubstringSet) Compare(a, b int64) int {
	ka := self.Key(a)
	kb := self.Key(b)
	for w := 0; w < self.WordsPerItem; w++ {
		if ka[w] != kb[w] {
			if ka[w] < kb[w] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Slice returns the sub-view covering count records starting at record
// start. The view shares the underlying buffer.
func (self SubstringSet) Slice(start, count int64) SubstringSet {
	w := int64(self.WordsPerItem)
	return SubstringSet{
		Words:        self.Words[start*w : (start+count)*w],
		WordsPerItem: self.WordsPerItem,
	}
}

// RandomSubstrings generates items records of wordsPerItem words each from a
// fixed seed so runs are reproducible.
func RandomSubstrings(items int64, wordsPerItem int) SubstringSet {
	rng := rand.New(rand.NewSource(0))
	words := make([]EdgeWord, items*int64(wordsPerItem))
	for i := range words {
		words[i] = rng.Uint32()
	}
	return SubstringSet{Words: words, WordsPerItem: wordsPerItem}
}

// CheckPermutation verifies that perm is a bijection on [0, items) and that
// applying it to sub yields a non-decreasing, index-stable sequence.
func CheckPermutation(sub SubstringSet, perm []uint32) error {
	n := sub.Items()
	if int64(len(perm)) < n {
		return errors.Errorf("permutation too short: expected %v, got %v", n, len(perm))
	}

	seen := make([]bool, n)
	for i := int64(0); i < n; i++ {
		p := int64(perm[i])
		if p >= n {
			return errors.Errorf("permutation[%v] = %v out of range", i, p)
		}
		if seen[p] {
			return errors.Errorf("permutation repeats index %v at position %v", p, i)
		}
		seen[p] = true
	}

	for i := int64(1); i < n; i++ {
		prev := int64(perm[i-1])
		cur := int64(perm[i])
		switch sub.Compare(prev, cur) {
		case 1:
			return errors.Errorf("out of order at position %v: record %v > record %v", i, prev, cur)
		case 0:
			if prev > cur {
				return errors.Errorf("unstable tie at position %v: index %v before %v", i, prev, cur)
			}
		}
	}
	return nil
}

// nextPow2 returns the smallest power of two >= n (and at least 1).
func nextPow2(n int64) int64 {
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}
