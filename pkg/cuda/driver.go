package cuda

// CUDA Driver API bindings via purego. No cgo required; libcuda.so is
// dlopen'd at runtime so the binary still loads on machines without an
// NVIDIA driver (NewContext just fails with ErrNoDevice there).
//
// Only the handful of functions the LV2 sort needs are bound:
//   - init/device: cuInit, cuDeviceGet, cuDeviceGetCount, cuDeviceGetName
//   - context:     cuCtxCreate, cuCtxDestroy, cuCtxSetCurrent
//   - memory:      cuMemAlloc, cuMemFree, cuMemGetInfo, cuMemcpyHtoD, cuMemcpyDtoH
//   - kernels:     cuModuleLoadData, cuModuleGetFunction, cuModuleUnload, cuLaunchKernel
//   - streams:     cuStreamCreate, cuStreamSynchronize, cuStreamDestroy

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// cuResult is a CUresult error code from the driver.
type cuResult int32

const (
	cudaSuccess            cuResult = 0
	cudaErrInvalidValue    cuResult = 1
	cudaErrOutOfMemory     cuResult = 2
	cudaErrNotInitialized  cuResult = 3
	cudaErrNoDevice        cuResult = 100
	cudaErrInvalidContext  cuResult = 201
	cudaErrInvalidHandle   cuResult = 400
	cudaErrNotFound        cuResult = 500
	cudaErrNotReady        cuResult = 600
	cudaErrLaunchFailed    cuResult = 719
	cudaErrLaunchTimeout   cuResult = 702
	cudaErrIllegalAddress  cuResult = 700
	cudaErrHardwareStackE  cuResult = 714
	cudaErrIllegalInstruct cuResult = 715
)

func (r cuResult) Error() string {
	names := map[cuResult]string{
		1: "INVALID_VALUE", 2: "OUT_OF_MEMORY", 3: "NOT_INITIALIZED",
		100: "NO_DEVICE", 201: "INVALID_CONTEXT", 400: "INVALID_HANDLE",
		500: "NOT_FOUND", 600: "NOT_READY", 700: "ILLEGAL_ADDRESS",
		702: "LAUNCH_TIMEOUT", 714: "HARDWARE_STACK_ERROR",
		715: "ILLEGAL_INSTRUCTION", 719: "LAUNCH_FAILED",
	}
	if r == cudaSuccess {
		return "CUDA_SUCCESS"
	}
	if name, ok := names[r]; ok {
		return fmt.Sprintf("CUDA_ERROR_%s (%d)", name, r)
	}
	return fmt.Sprintf("CUDA_ERROR(%d)", r)
}

var (
	driverOnce sync.Once
	driverErr  error

	cuInit           func(flags uint32) cuResult
	cuDeviceGetCount func(count *int32) cuResult
	cuDeviceGet      func(device *int32, ordinal int32) cuResult
	cuDeviceGetName  func(name *byte, len int32, dev int32) cuResult

	cuCtxCreate     func(pctx *uintptr, flags uint32, dev int32) cuResult
	cuCtxDestroy    func(ctx uintptr) cuResult
	cuCtxSetCurrent func(ctx uintptr) cuResult

	cuMemAlloc   func(dptr *uintptr, bytesize uint64) cuResult
	cuMemFree    func(dptr uintptr) cuResult
	cuMemGetInfo func(free *uint64, total *uint64) cuResult
	cuMemcpyHtoD func(dstDevice uintptr, srcHost unsafe.Pointer, byteCount uint64) cuResult
	cuMemcpyDtoH func(dstHost unsafe.Pointer, srcDevice uintptr, byteCount uint64) cuResult

	cuModuleLoadData    func(module *uintptr, image unsafe.Pointer) cuResult
	cuModuleGetFunction func(hfunc *uintptr, hmod uintptr, name *byte) cuResult
	cuModuleUnload      func(hmod uintptr) cuResult
	cuLaunchKernel      func(
		f uintptr,
		gridDimX, gridDimY, gridDimZ uint32,
		blockDimX, blockDimY, blockDimZ uint32,
		sharedMemBytes uint32,
		hStream uintptr,
		kernelParams unsafe.Pointer,
		extra unsafe.Pointer,
	) cuResult

	cuStreamCreate      func(phStream *uintptr, flags uint32) cuResult
	cuStreamSynchronize func(hStream uintptr) cuResult
	cuStreamDestroy     func(hStream uintptr) cuResult
)

// initDriver loads libcuda.so and registers all function pointers.
func initDriver() error {
	driverOnce.Do(func() {
		var lib uintptr
		lib, driverErr = purego.Dlopen("libcuda.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if driverErr != nil {
			lib, driverErr = purego.Dlopen("libcuda.so", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if driverErr != nil {
				driverErr = fmt.Errorf("cannot load libcuda.so: %w", driverErr)
				return
			}
		}

		purego.RegisterLibFunc(&cuInit, lib, "cuInit")
		purego.RegisterLibFunc(&cuDeviceGetCount, lib, "cuDeviceGetCount")
		purego.RegisterLibFunc(&cuDeviceGet, lib, "cuDeviceGet")
		purego.RegisterLibFunc(&cuDeviceGetName, lib, "cuDeviceGetName")
		purego.RegisterLibFunc(&cuCtxCreate, lib, "cuCtxCreate_v2")
		purego.RegisterLibFunc(&cuCtxDestroy, lib, "cuCtxDestroy_v2")
		purego.RegisterLibFunc(&cuCtxSetCurrent, lib, "cuCtxSetCurrent")
		purego.RegisterLibFunc(&cuMemAlloc, lib, "cuMemAlloc_v2")
		purego.RegisterLibFunc(&cuMemFree, lib, "cuMemFree_v2")
		purego.RegisterLibFunc(&cuMemGetInfo, lib, "cuMemGetInfo_v2")
		purego.RegisterLibFunc(&cuMemcpyHtoD, lib, "cuMemcpyHtoD_v2")
		purego.RegisterLibFunc(&cuMemcpyDtoH, lib, "cuMemcpyDtoH_v2")
		purego.RegisterLibFunc(&cuModuleLoadData, lib, "cuModuleLoadData")
		purego.RegisterLibFunc(&cuModuleGetFunction, lib, "cuModuleGetFunction")
		purego.RegisterLibFunc(&cuModuleUnload, lib, "cuModuleUnload")
		purego.RegisterLibFunc(&cuLaunchKernel, lib, "cuLaunchKernel")
		purego.RegisterLibFunc(&cuStreamCreate, lib, "cuStreamCreate")
		purego.RegisterLibFunc(&cuStreamSynchronize, lib, "cuStreamSynchronize")
		purego.RegisterLibFunc(&cuStreamDestroy, lib, "cuStreamDestroy_v2")
	})
	return driverErr
}

func check(r cuResult, op string) error {
	if r != cudaSuccess {
		return fmt.Errorf("%s: %s", op, r.Error())
	}
	return nil
}

// deviceName returns the driver-reported name of a device ordinal.
func deviceName(dev int32) (string, error) {
	buf := make([]byte, 256)
	if err := check(cuDeviceGetName(&buf[0], 256, dev), "cuDeviceGetName"); err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}
