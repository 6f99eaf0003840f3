package data

import (
	"io"
)

// Bucket staging for the LV2 sort. A bucket's substring records arrive
// partitioned (one part per producer thread, or one spill file per part when
// the bucket was written out-of-core) and are assembled into one contiguous
// record buffer before sorting.

// BucketPart is one partition of a bucket's packed records.
type BucketPart interface {
	// RangeReader returns a reader over the byte range [start, end) of the
	// part. An end <= 0 indexes backwards from the end of the part; zero
	// reads to the end.
	RangeReader(start, end int64) (io.ReadCloser, error)

	// Reader returns a reader over the whole part.
	Reader() (io.ReadCloser, error)

	// Writer returns a writer that appends to the part.
	Writer() (io.WriteCloser, error)

	// Len returns the number of bytes currently in the part.
	Len() (int64, error)
}

// BucketArray is a partitioned bucket of packed substring records.
type BucketArray interface {
	Parts() ([]BucketPart, error)
}

// BucketFactory creates bucket arrays. The pipeline driver picks the
// memory-backed or file-backed implementation per deployment.
type BucketFactory func(name string, nparts int) (BucketArray, error)
