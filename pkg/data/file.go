package data

// File-backed bucket parts, one flat file per part under the bucket's root
// directory. This is the spill path for buckets too large to keep in host
// memory between pipeline stages.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type filePartReader struct {
	file *os.File

	// Bytes still to return before the range limit
	nRemaining int64
}

func (self *filePartReader) Read(dst []byte) (n int, err error) {
	if self.nRemaining <= 0 {
		return 0, io.EOF
	}

	toRead := int64(len(dst))
	if toRead > self.nRemaining {
		toRead = self.nRemaining
	}

	n, err = self.file.Read(dst[:toRead])
	self.nRemaining -= int64(n)
	return n, err
}

func (self *filePartReader) Close() error {
	return self.file.Close()
}

// FileBucketPart stores one partition's packed records in a flat file.
type FileBucketPart struct {
	path string
}

func (self *FileBucketPart) Len() (int64, error) {
	stat, err := os.Stat(self.path)
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (self *FileBucketPart) RangeReader(start, end int64) (io.ReadCloser, error) {
	file, err := os.Open(self.path)
	if err != nil {
		return nil, err
	}

	if end <= 0 {
		stat, err := file.Stat()
		if err != nil {
			file.Close()
			return nil, err
		}
		end = stat.Size() + end
	}

	if start != 0 {
		if _, err := file.Seek(start, 0); err != nil {
			file.Close()
			return nil, errors.Wrapf(err, "Could not seek to start offset %v", start)
		}
	}

	return &filePartReader{file: file, nRemaining: end - start}, nil
}

func (self *FileBucketPart) Reader() (io.ReadCloser, error) {
	return self.RangeReader(0, 0)
}

func (self *FileBucketPart) Writer() (io.WriteCloser, error) {
	return os.OpenFile(self.path, os.O_APPEND|os.O_WRONLY, 0600)
}

// FileBucketArray is a bucket whose parts are spill files under RootPath.
type FileBucketArray struct {
	RootPath string
}

// NewFileBucketArray creates the bucket directory and one empty file per
// part.
func NewFileBucketArray(rootPath string, nparts int) (*FileBucketArray, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	if err := os.Mkdir(rootPath, 0700); err != nil {
		return nil, errors.Wrapf(err, "Failed to create bucket directory %v", rootPath)
	}

	for i := 0; i < nparts; i++ {
		path := filepath.Join(rootPath, partFileName(i))
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to create part %v", i)
		}
		file.Close()
	}

	return &FileBucketArray{RootPath: rootPath}, nil
}

// OpenFileBucketArray opens an existing on-disk bucket.
func OpenFileBucketArray(rootPath string) (*FileBucketArray, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}
	return &FileBucketArray{RootPath: rootPath}, nil
}

func (self *FileBucketArray) Parts() ([]BucketPart, error) {
	entries, err := os.ReadDir(self.RootPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to list bucket directory %v", self.RootPath)
	}

	parts := make([]BucketPart, 0, len(entries))
	for i := range entries {
		parts = append(parts, &FileBucketPart{path: filepath.Join(self.RootPath, partFileName(i))})
	}
	return parts, nil
}

// NewFileBucketFactory returns a factory that roots each bucket's spill
// directory under dir.
func NewFileBucketFactory(dir string) BucketFactory {
	return func(name string, nparts int) (BucketArray, error) {
		return NewFileBucketArray(filepath.Join(dir, name), nparts)
	}
}

func partFileName(i int) string {
	return fmt.Sprintf("p%v.dat", i)
}
