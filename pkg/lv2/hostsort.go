package lv2

// Host-side permutation sort. This is the fallback path the pipeline takes
// when no device is available or a bucket's device sort fails, and it
// defines the reference order: non-decreasing word-wise keys with ties kept
// in original index order.
//
// LSD radix with 8-bit counting passes from the least significant word up.
// Counting passes are stable, so seeding the permutation with 0..n-1 makes
// the final order index-stable with no explicit tie-break.

import (
	"github.com/pkg/errors"
)

// Below this many records the radix passes cost more than they save.
const insertionCutoff = 64

// SortHost writes the stable sorted permutation of sub into perm using only
// host memory. perm must hold at least sub.Items() entries.
func SortHost(sub SubstringSet, perm []uint32) error {
	n := sub.Items()
	if int64(len(perm)) < n {
		return errors.Errorf("permutation buffer too small: need %v, have %v", n, len(perm))
	}
	if n == 0 {
		return nil
	}

	out := perm[:n]
	for i := range out {
		out[i] = uint32(i)
	}
	if n == 1 {
		return nil
	}

	if n <= insertionCutoff {
		insertionSortIdx(sub, out)
		return nil
	}

	// One counting pass per key byte, least significant word first. The
	// pass count (4 per word) is even, so the result lands back in out.
	scratch := make([]uint32, n)
	src, dst := out, scratch
	for w := sub.WordsPerItem - 1; w >= 0; w-- {
		for shift := uint(0); shift < 32; shift += 8 {
			radixPassIdx(sub, w, shift, src, dst)
			src, dst = dst, src
		}
	}
	return nil
}

// radixPassIdx stably reorders the index slice src into dst by one byte of
// key word w.
func radixPassIdx(sub SubstringSet, w int, shift uint, src, dst []uint32) {
	stride := int64(sub.WordsPerItem)
	var counts [256]int

	for _, idx := range src {
		b := (sub.Words[int64(idx)*stride+int64(w)] >> shift) & 0xff
		counts[b]++
	}

	total := 0
	for i := range counts {
		c := counts[i]
		counts[i] = total
		total += c
	}

	for _, idx := range src {
		b := (sub.Words[int64(idx)*stride+int64(w)] >> shift) & 0xff
		dst[counts[b]] = idx
		counts[b]++
	}
}

// insertionSortIdx sorts the index slice in place. idx starts in increasing
// order and only strictly-greater records are moved, so equal keys keep
// their index order.
func insertionSortIdx(sub SubstringSet, idx []uint32) {
	for i := 1; i < len(idx); i++ {
		cur := idx[i]
		j := i - 1
		for j >= 0 && sub.Compare(int64(idx[j]), int64(cur)) > 0 {
			idx[j+1] = idx[j]
			j--
		}
		idx[j+1] = cur
	}
}
