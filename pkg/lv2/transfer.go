package lv2

// Chunk staging. Device buffers are acquired and released per chunk so a
// long-running process sorting many buckets never accumulates device
// allocations; every exit path, including copy failures, releases both
// buffers.

import (
	"github.com/pkg/errors"
)

// stagedChunk is one chunk of records resident on the device, together with
// its seeded permutation buffer.
type stagedChunk struct {
	dev    Device
	keys   Buffer
	perm   Buffer
	count  int64
	padded int64
}

// stageChunk copies the chunk's records to the device and seeds the device
// permutation with local indices padded by sentinels to a power of two.
// On error nothing is left allocated.
func stageChunk(dev Device, chunk SubstringSet) (*stagedChunk, error) {
	count := chunk.Items()
	padded := nextPow2(count)

	keys, err := dev.Malloc(uint64(len(chunk.Words)) * 4)
	if err != nil {
		return nil, errors.Wrapf(ErrTransfer, "allocating %v key words: %v", len(chunk.Words), err)
	}

	perm, err := dev.Malloc(uint64(padded) * 4)
	if err != nil {
		keys.Free()
		return nil, errors.Wrapf(ErrTransfer, "allocating %v permutation entries: %v", padded, err)
	}

	self := &stagedChunk{dev: dev, keys: keys, perm: perm, count: count, padded: padded}

	if err := dev.ToDevice(keys, chunk.Words); err != nil {
		self.release()
		return nil, errors.Wrapf(ErrTransfer, "staging %v records: %v", count, err)
	}

	seed := make([]uint32, padded)
	for i := int64(0); i < count; i++ {
		seed[i] = uint32(i)
	}
	for i := count; i < padded; i++ {
		seed[i] = sentinelIdx
	}
	if err := dev.ToDevice(perm, seed); err != nil {
		self.release()
		return nil, errors.Wrapf(ErrTransfer, "seeding permutation of %v entries: %v", padded, err)
	}

	return self, nil
}

// sort runs the device sort over the staged chunk.
func (self *stagedChunk) sort(wordsPerItem int) error {
	err := self.dev.SortSubstrings(self.keys, self.perm, int(self.count), int(self.padded), wordsPerItem)
	if err != nil {
		return errors.Wrapf(ErrKernel, "sorting chunk of %v records: %v", self.count, err)
	}
	return nil
}

// retrieve copies the sorted permutation prefix back into dst, which must
// hold count entries.
func (self *stagedChunk) retrieve(dst []uint32) error {
	if err := self.dev.FromDevice(dst[:self.count], self.perm); err != nil {
		return errors.Wrapf(ErrTransfer, "retrieving permutation of %v entries: %v", self.count, err)
	}
	return nil
}

// release frees both device buffers. Safe to call more than once.
func (self *stagedChunk) release() {
	self.keys.Free()
	self.perm.Free()
}
