package lv2

// Device is the accelerator surface the sorter drives. The real
// implementation is cuda.Context; tests inject fakes that report arbitrary
// free-memory values and fail on demand without touching hardware.
//
// No implementation is required to be goroutine safe: the whole subsystem
// assumes strictly sequential invocation by one controlling thread.
type Device interface {
	// MemInfo returns an instantaneous (free, total) snapshot in bytes.
	// Valid only at the moment of the call.
	MemInfo() (free uint64, total uint64, err error)

	// Malloc allocates nbyte bytes of device memory.
	Malloc(nbyte uint64) (Buffer, error)

	// ToDevice copies the words of src into dst.
	ToDevice(dst Buffer, src []uint32) error

	// FromDevice copies 4*len(dst) bytes from the front of src into dst.
	FromDevice(dst []uint32, src Buffer) error

	// SortSubstrings sorts the device-resident permutation over the staged
	// keys. keys holds count records of wordsPerItem words; perm holds
	// padded entries (power of two >= count) seeded with 0..count-1 then
	// sentinels. Blocks until the device finishes; on return the first
	// count entries of perm are the permutation.
	SortSubstrings(keys Buffer, perm Buffer, count int, padded int, wordsPerItem int) error
}

// Buffer is a device-side allocation. Free must be safe to call twice so
// cleanup paths can be unconditional.
type Buffer interface {
	Free()
}
