package lv2

// Engine is the pipeline-facing entry point. The SDBG builder must never
// abort an assembly run because one bucket failed on the device, so the
// engine substitutes the host sort for any bucket that hits a recoverable
// device condition.

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine sorts buckets on the device when one is bound, falling back to the
// host path per bucket. A nil device means host-only operation (the
// no-device deployment). Single controlling thread only.
type Engine struct {
	sorter *Sorter
	log    *logrus.Logger
}

// NewEngine wires an engine to dev. dev may be nil. log may be nil, in
// which case fallbacks are silent.
func NewEngine(dev Device, log *logrus.Logger) *Engine {
	self := &Engine{log: log}
	if dev != nil {
		self.sorter = NewSorter(dev)
	}
	return self
}

// Sort fills perm with the stable sorted permutation of sub. Recoverable
// device failures (insufficient memory, transfer faults after retry, kernel
// faults) are absorbed by re-sorting the bucket on the host; only argument
// errors propagate.
func (self *Engine) Sort(sub SubstringSet, perm []uint32) error {
	if self.sorter == nil {
		return SortHost(sub, perm)
	}

	err := self.sorter.Sort(sub, perm)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInsufficientDeviceMemory) ||
		errors.Is(err, ErrTransfer) ||
		errors.Is(err, ErrKernel) {
		if self.log != nil {
			self.log.WithFields(logrus.Fields{
				"items": sub.Items(),
				"words": sub.WordsPerItem,
			}).Warnf("Device sort failed, falling back to host sort: %v", err)
		}
		return SortHost(sub, perm)
	}
	return err
}
