package lv2

import (
	"github.com/pkg/errors"
)

// Error taxonomy for the LV2 sort engine. All of these surface synchronously
// to the controlling thread, wrapped with context; use errors.Is to classify.
var (
	// ErrInsufficientDeviceMemory means the device cannot fit even one
	// record's footprint. Recoverable: the caller should fall back to the
	// host sort or shrink the bucket upstream.
	ErrInsufficientDeviceMemory = errors.New("insufficient device memory for lv2 sort")

	// ErrTransfer is a host<->device copy or staging failure. The sorter
	// retries the chunk once at half size before escalating.
	ErrTransfer = errors.New("device transfer failed")

	// ErrKernel is a kernel launch or execution fault. The in-flight chunk
	// is discarded; no partial results are trusted.
	ErrKernel = errors.New("sort kernel execution failed")
)
