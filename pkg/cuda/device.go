package cuda

// Device context for the LV2 GPU sort. One live Context per process; the
// sort subsystem itself is single threaded (callers must serialize), so the
// only locking here is the init-once guard on the process-wide binding.

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/mkoohim/megahit/pkg/lv2"
)

var (
	// ErrNoDevice means no CUDA driver or no usable device is present.
	ErrNoDevice = errors.New("no CUDA device available")

	// ErrAlreadyInitialized means a live Context already exists in this
	// process. Close the old one first.
	ErrAlreadyInitialized = errors.New("CUDA context already initialized")

	// ErrClosed is returned for operations on a closed Context.
	ErrClosed = errors.New("CUDA context is closed")
)

const threadsPerBlock = 256

// Tracks the one live context per process. NewContext fails rather than
// silently rebinding; see DESIGN.md for the policy choice.
var ctxLive int32

var _ lv2.Device = (*Context)(nil)

// Context is the process binding to one CUDA device. It implements
// lv2.Device. Not safe for concurrent use.
type Context struct {
	dev     int32
	name    string
	ctx     uintptr
	stream  uintptr
	module  uintptr
	bitonic uintptr
	closed  bool
}

// Buffer is a device memory allocation.
type Buffer struct {
	ptr   uintptr
	nbyte uint64
	freed bool
}

// Free releases the device allocation. Safe to call more than once.
func (self *Buffer) Free() {
	if self.freed || self.ptr == 0 {
		return
	}
	cuMemFree(self.ptr)
	self.freed = true
}

// NewContext binds the process to device deviceIdx, loads the sort kernels,
// and returns the live context. Fails with ErrNoDevice if no driver or
// device is present and ErrAlreadyInitialized if a context already exists.
func NewContext(deviceIdx int) (*Context, error) {
	if !atomic.CompareAndSwapInt32(&ctxLive, 0, 1) {
		return nil, ErrAlreadyInitialized
	}

	ctx, err := newContext(deviceIdx)
	if err != nil {
		atomic.StoreInt32(&ctxLive, 0)
		return nil, err
	}
	return ctx, nil
}

func newContext(deviceIdx int) (*Context, error) {
	if err := initDriver(); err != nil {
		return nil, errors.Wrapf(ErrNoDevice, "%v", err)
	}
	if r := cuInit(0); r != cudaSuccess {
		return nil, errors.Wrapf(ErrNoDevice, "cuInit: %v", r.Error())
	}

	var count int32
	if r := cuDeviceGetCount(&count); r != cudaSuccess {
		return nil, errors.Wrapf(ErrNoDevice, "cuDeviceGetCount: %v", r.Error())
	}
	if int(count) <= deviceIdx {
		return nil, errors.Wrapf(ErrNoDevice, "device %v requested but only %v present", deviceIdx, count)
	}

	self := &Context{}
	if err := check(cuDeviceGet(&self.dev, int32(deviceIdx)), "cuDeviceGet"); err != nil {
		return nil, errors.Wrap(ErrNoDevice, err.Error())
	}
	self.name, _ = deviceName(self.dev)

	if err := check(cuCtxCreate(&self.ctx, 0, self.dev), "cuCtxCreate"); err != nil {
		return nil, errors.Wrap(ErrNoDevice, err.Error())
	}
	if err := check(cuStreamCreate(&self.stream, 0), "cuStreamCreate"); err != nil {
		cuCtxDestroy(self.ctx)
		return nil, errors.Wrap(ErrNoDevice, err.Error())
	}

	// Load the PTX module and resolve the sort kernel
	ptx := append([]byte(lv2SortPTX), 0)
	if err := check(cuModuleLoadData(&self.module, unsafe.Pointer(&ptx[0])), "cuModuleLoadData"); err != nil {
		self.teardown()
		return nil, errors.Wrap(ErrNoDevice, err.Error())
	}
	kname := append([]byte(kernelNameBitonicStep), 0)
	if err := check(cuModuleGetFunction(&self.bitonic, self.module, &kname[0]), "cuModuleGetFunction"); err != nil {
		self.teardown()
		return nil, errors.Wrap(ErrNoDevice, err.Error())
	}

	return self, nil
}

// Name returns the driver-reported device name.
func (self *Context) Name() string {
	return self.name
}

// MemInfo returns an instantaneous snapshot of free and total device memory
// in bytes. The snapshot is stale as soon as it is returned; callers must
// re-query before every planning decision.
func (self *Context) MemInfo() (free uint64, total uint64, err error) {
	if self.closed {
		return 0, 0, ErrClosed
	}
	if err := check(cuMemGetInfo(&free, &total), "cuMemGetInfo"); err != nil {
		return 0, 0, err
	}
	return free, total, nil
}

// ownBuffer rejects buffers that did not come from this package's Malloc.
func ownBuffer(b lv2.Buffer) (*Buffer, error) {
	buf, ok := b.(*Buffer)
	if !ok {
		return nil, errors.Errorf("buffer of type %T was not allocated by this device", b)
	}
	return buf, nil
}

// Malloc allocates nbyte bytes of device memory.
func (self *Context) Malloc(nbyte uint64) (lv2.Buffer, error) {
	if self.closed {
		return nil, ErrClosed
	}
	buf := &Buffer{nbyte: nbyte}
	if err := check(cuMemAlloc(&buf.ptr, nbyte), "cuMemAlloc"); err != nil {
		return nil, err
	}
	return buf, nil
}

// ToDevice copies the words in src to dst. dst must be at least
// 4*len(src) bytes.
func (self *Context) ToDevice(dst lv2.Buffer, src []uint32) error {
	if self.closed {
		return ErrClosed
	}
	buf, err := ownBuffer(dst)
	if err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}
	nbyte := uint64(len(src)) * 4
	if nbyte > buf.nbyte {
		return errors.Errorf("copy of %v bytes into a %v byte device buffer", nbyte, buf.nbyte)
	}
	return check(cuMemcpyHtoD(buf.ptr, unsafe.Pointer(&src[0]), nbyte), "cuMemcpyHtoD")
}

// FromDevice copies 4*len(dst) bytes from the front of src into dst.
func (self *Context) FromDevice(dst []uint32, src lv2.Buffer) error {
	if self.closed {
		return ErrClosed
	}
	buf, err := ownBuffer(src)
	if err != nil {
		return err
	}
	if len(dst) == 0 {
		return nil
	}
	nbyte := uint64(len(dst)) * 4
	if nbyte > buf.nbyte {
		return errors.Errorf("copy of %v bytes out of a %v byte device buffer", nbyte, buf.nbyte)
	}
	return check(cuMemcpyDtoH(unsafe.Pointer(&dst[0]), buf.ptr, nbyte), "cuMemcpyDtoH")
}

// SortSubstrings runs the bitonic network over the device-resident
// permutation. keys holds count records of wordsPerItem words each; perm
// holds padded entries (a power of two >= count) seeded with 0..count-1
// followed by sentinels. On return the first count entries of perm are the
// sorted permutation. Blocks until the device finishes.
func (self *Context) SortSubstrings(keys lv2.Buffer, perm lv2.Buffer, count int, padded int, wordsPerItem int) error {
	if self.closed {
		return ErrClosed
	}
	kbuf, err := ownBuffer(keys)
	if err != nil {
		return err
	}
	pbuf, err := ownBuffer(perm)
	if err != nil {
		return err
	}
	if count <= 1 {
		return nil
	}

	n := uint32(padded)
	words := uint32(wordsPerItem)
	grid := (n + threadsPerBlock - 1) / threadsPerBlock

	for k := uint32(2); k <= n; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			kj, kk := j, k
			args := []unsafe.Pointer{
				unsafe.Pointer(&kbuf.ptr),
				unsafe.Pointer(&pbuf.ptr),
				unsafe.Pointer(&n),
				unsafe.Pointer(&words),
				unsafe.Pointer(&kj),
				unsafe.Pointer(&kk),
			}
			r := cuLaunchKernel(self.bitonic,
				grid, 1, 1,
				threadsPerBlock, 1, 1,
				0, self.stream,
				unsafe.Pointer(&args[0]), nil)
			if r != cudaSuccess {
				return errors.Errorf("bitonic step (j=%v k=%v): %v", j, k, r.Error())
			}
		}
	}

	return check(cuStreamSynchronize(self.stream), "cuStreamSynchronize")
}

// Close tears down the device binding: unloads the sort module, destroys the
// stream and context, and lets a future NewContext succeed. Idempotent.
func (self *Context) Close() error {
	if self.closed {
		return nil
	}
	self.teardown()
	self.closed = true
	atomic.StoreInt32(&ctxLive, 0)
	return nil
}

func (self *Context) teardown() {
	if self.module != 0 {
		cuModuleUnload(self.module)
		self.module = 0
	}
	if self.stream != 0 {
		cuStreamDestroy(self.stream)
		self.stream = 0
	}
	if self.ctx != 0 {
		cuCtxDestroy(self.ctx)
		self.ctx = 0
	}
}
