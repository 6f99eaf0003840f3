package data

// In-memory bucket parts. No persistence and no sharing between processes;
// this is the fast path when the whole LV2 bucket fits in host memory.

import (
	"io"
)

type memPartReader struct {
	part *MemBucketPart

	// pos and limit act like slice indices; Read returns [pos, limit)
	pos   int64
	limit int64
}

func (self *memPartReader) Read(dst []byte) (n int, err error) {
	n = copy(dst, self.part.buf[self.pos:self.limit])
	self.pos += int64(n)

	if self.pos == self.limit {
		err = io.EOF
	}
	return n, err
}

func (self *memPartReader) Close() error {
	return nil
}

type memPartWriter struct {
	part *MemBucketPart
}

func (self *memPartWriter) Write(src []byte) (n int, err error) {
	self.part.buf = append(self.part.buf, src...)
	return len(src), nil
}

func (self *memPartWriter) Close() error {
	return nil
}

// MemBucketPart holds one partition's packed records in host memory.
type MemBucketPart struct {
	buf []byte
}

func (self *MemBucketPart) RangeReader(start, end int64) (io.ReadCloser, error) {
	if end <= 0 {
		end = int64(len(self.buf)) + end
	}
	return &memPartReader{part: self, pos: start, limit: end}, nil
}

func (self *MemBucketPart) Reader() (io.ReadCloser, error) {
	return self.RangeReader(0, 0)
}

func (self *MemBucketPart) Writer() (io.WriteCloser, error) {
	return &memPartWriter{part: self}, nil
}

func (self *MemBucketPart) Len() (int64, error) {
	return int64(len(self.buf)), nil
}

// MemBucketArray is a bucket whose parts live in host memory.
type MemBucketArray struct {
	parts []*MemBucketPart
}

func NewMemBucketArray(nparts int) (*MemBucketArray, error) {
	parts := make([]*MemBucketPart, nparts)
	for i := range parts {
		parts[i] = &MemBucketPart{}
	}
	return &MemBucketArray{parts: parts}, nil
}

func (self *MemBucketArray) Parts() ([]BucketPart, error) {
	generic := make([]BucketPart, len(self.parts))
	for i, p := range self.parts {
		generic[i] = p
	}
	return generic, nil
}

// MemBucketFactory creates in-memory bucket arrays. The name is ignored
// (nothing is persisted).
func MemBucketFactory(name string, nparts int) (BucketArray, error) {
	return NewMemBucketArray(nparts)
}
