package lv2

// Sort orchestration. A bucket that fits in device memory is sorted in one
// pass; larger buckets are chunked under the planner's budget, each chunk
// sorted on the device, and the per-chunk permutations stitched with a
// k-way merge on the host.
//
// Single controlling thread only. No locking is provided; concurrent calls
// are undefined behavior by contract.

import (
	"github.com/pkg/errors"
)

// A sorted chunk: global record offset plus its permutation in global
// indices.
type chunkPerm struct {
	base int64
	perm []uint32
}

// Sorter runs the device sort over LV2 buckets.
type Sorter struct {
	Dev     Device
	Planner Planner
}

func NewSorter(dev Device) *Sorter {
	return &Sorter{Dev: dev}
}

// Sort computes the stable sorted permutation of sub into perm using the
// device. perm must hold at least sub.Items() entries; on error its
// contents are unspecified and must not be used.
//
// The free-memory snapshot is re-queried before every chunk because other
// users of the device may allocate between chunks. A transfer failure is
// retried once at half the chunk size, then escalated. Kernel faults are
// never retried.
func (self *Sorter) Sort(sub SubstringSet, perm []uint32) error {
	n := sub.Items()
	if int64(len(perm)) < n {
		return errors.Errorf("permutation buffer too small: need %v, have %v", n, len(perm))
	}
	if n == 0 {
		return nil
	}
	if n == 1 {
		perm[0] = 0
		return nil
	}

	var chunks []chunkPerm
	for base := int64(0); base < n; {
		free, _, err := self.Dev.MemInfo()
		if err != nil {
			return errors.Wrapf(ErrTransfer, "querying device memory: %v", err)
		}

		size, err := self.Planner.Plan(free, sub.WordsPerItem, n-base)
		if err != nil {
			return err
		}

		local, err := self.sortChunk(sub.Slice(base, size))
		if errors.Is(err, ErrTransfer) && size > 1 {
			size = (size + 1) / 2
			local, err = self.sortChunk(sub.Slice(base, size))
		}
		if err != nil {
			return err
		}

		// Rebase local chunk indices to global record indices
		for i := range local {
			local[i] += uint32(base)
		}
		chunks = append(chunks, chunkPerm{base: base, perm: local})
		base += size
	}

	if len(chunks) == 1 {
		copy(perm[:n], chunks[0].perm)
		return nil
	}
	mergeChunks(sub, chunks, perm[:n])
	return nil
}

// sortChunk stages one chunk, sorts it, and retrieves the local
// permutation. Device buffers are released on every path.
func (self *Sorter) sortChunk(chunk SubstringSet) ([]uint32, error) {
	staged, err := stageChunk(self.Dev, chunk)
	if err != nil {
		return nil, err
	}
	defer staged.release()

	if err := staged.sort(chunk.WordsPerItem); err != nil {
		return nil, err
	}

	out := make([]uint32, chunk.Items())
	if err := staged.retrieve(out); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeChunks merges sorted chunk permutations into out, comparing full
// keys and breaking ties by global index so the stitched order matches a
// single stable sort of the whole bucket.
func mergeChunks(sub SubstringSet, chunks []chunkPerm, out []uint32) {
	heads := make([]int, len(chunks))

	for pos := range out {
		best := -1
		var bestIdx int64
		for c := range chunks {
			if heads[c] >= len(chunks[c].perm) {
				continue
			}
			cand := int64(chunks[c].perm[heads[c]])
			if best < 0 {
				best, bestIdx = c, cand
				continue
			}
			cmp := sub.Compare(cand, bestIdx)
			if cmp < 0 || (cmp == 0 && cand < bestIdx) {
				best, bestIdx = c, cand
			}
		}
		out[pos] = uint32(bestIdx)
		heads[best]++
	}
}
