package data

// Bucket assembly: the sort engine wants one contiguous record buffer, so
// the parts of a bucket are read concurrently into their slots of a single
// allocation. Reader concurrency is bounded so a bucket with hundreds of
// spill files does not open them all at once.

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/mkoohim/megahit/pkg/lv2"
)

// DefaultMaxReaders bounds concurrent part reads in LoadBucket.
const DefaultMaxReaders = 8

// AppendRecords appends packed record words to a part, little endian.
func AppendRecords(part BucketPart, words []lv2.EdgeWord) error {
	writer, err := part.Writer()
	if err != nil {
		return errors.Wrap(err, "Failed to get part writer")
	}

	if err := binary.Write(writer, binary.LittleEndian, words); err != nil {
		writer.Close()
		return errors.Wrap(err, "Failed to append records")
	}
	return writer.Close()
}

// LoadBucket reads every part of arr into one contiguous SubstringSet.
// Parts are read concurrently, at most maxReaders at a time (<= 0 means
// DefaultMaxReaders). Part boundaries must fall on record boundaries.
func LoadBucket(ctx context.Context, arr BucketArray, wordsPerItem int, maxReaders int64) (lv2.SubstringSet, error) {
	if maxReaders <= 0 {
		maxReaders = DefaultMaxReaders
	}

	parts, err := arr.Parts()
	if err != nil {
		return lv2.SubstringSet{}, errors.Wrap(err, "Failed to get bucket parts")
	}

	recordBytes := int64(wordsPerItem) * 4
	offsets := make([]int64, len(parts)) // word offset of each part
	totalWords := int64(0)
	for i, part := range parts {
		nbyte, err := part.Len()
		if err != nil {
			return lv2.SubstringSet{}, errors.Wrapf(err, "Couldn't determine length of part %v", i)
		}
		if nbyte%recordBytes != 0 {
			return lv2.SubstringSet{}, errors.Errorf("part %v holds %v bytes, not a whole number of %v-byte records",
				i, nbyte, recordBytes)
		}
		offsets[i] = totalWords
		totalWords += nbyte / 4
	}

	words := make([]lv2.EdgeWord, totalWords)

	sem := semaphore.NewWeighted(maxReaders)
	errChan := make(chan error, len(parts))
	var wg sync.WaitGroup
	wg.Add(len(parts))

	for i := range parts {
		partX := i
		go func() {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				errChan <- errors.Wrapf(err, "Cancelled while waiting to read part %v", partX)
				return
			}
			defer sem.Release(1)

			if err := readPartInto(parts[partX], words, offsets[partX], partX); err != nil {
				errChan <- err
			}
		}()
	}
	wg.Wait()

	select {
	case firstErr := <-errChan:
		return lv2.SubstringSet{}, firstErr
	default:
	}

	return lv2.NewSubstringSet(words, wordsPerItem)
}

func readPartInto(part BucketPart, words []lv2.EdgeWord, offset int64, partX int) error {
	nbyte, err := part.Len()
	if err != nil {
		return errors.Wrapf(err, "Couldn't determine length of part %v", partX)
	}
	if nbyte == 0 {
		return nil
	}

	reader, err := part.Reader()
	if err != nil {
		return errors.Wrapf(err, "Couldn't read part %v", partX)
	}
	defer reader.Close()

	if err := binary.Read(reader, binary.LittleEndian, words[offset:offset+nbyte/4]); err != nil {
		return errors.Wrapf(err, "Couldn't read from part %v", partX)
	}
	return nil
}
