package cuda

// These tests need real hardware: they skip cleanly when no CUDA driver or
// device is present so CI without GPUs stays green.

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/mkoohim/megahit/pkg/lv2"
)

func requireDevice(t *testing.T) *Context {
	ctx, err := NewContext(0)
	if errors.Is(err, ErrNoDevice) {
		t.Skipf("No CUDA device available: %v", err)
	}
	require.Nil(t, err, "Failed to initialize device")
	return ctx
}

func TestContextLifecycle(t *testing.T) {
	ctx := requireDevice(t)

	free, total, err := ctx.MemInfo()
	require.Nil(t, err, "Failed to query memory")
	require.NotZero(t, total, "Total device memory can't be zero")
	require.LessOrEqual(t, free, total)

	// Only one live context per process
	_, err = NewContext(0)
	require.True(t, errors.Is(err, ErrAlreadyInitialized), "Second init must be rejected, got %v", err)

	require.Nil(t, ctx.Close(), "Failed to close context")
	require.Nil(t, ctx.Close(), "Close must be idempotent")

	_, _, err = ctx.MemInfo()
	require.True(t, errors.Is(err, ErrClosed), "Closed context must reject queries, got %v", err)
}

func TestDeviceSort(t *testing.T) {
	ctx := requireDevice(t)
	defer ctx.Close()

	for _, words := range []int{1, 3} {
		sub := lv2.RandomSubstrings(4099, words)

		perm := make([]uint32, sub.Items())
		require.Nil(t, lv2.NewSorter(ctx).Sort(sub, perm), "Device sort failed")
		require.Nil(t, lv2.CheckPermutation(sub, perm), "Bad permutation from device")

		ref := make([]uint32, sub.Items())
		require.Nil(t, lv2.SortHost(sub, ref), "Host reference sort failed")
		require.Equal(t, ref, perm, "Device order disagrees with host order (words=%v)", words)
	}
}

func TestBufferRoundTrip(t *testing.T) {
	ctx := requireDevice(t)
	defer ctx.Close()

	src := []uint32{0, 1, 0xffffffff, 42}
	buf, err := ctx.Malloc(uint64(len(src)) * 4)
	require.Nil(t, err, "Failed to allocate")
	defer buf.Free()

	require.Nil(t, ctx.ToDevice(buf, src), "HtoD failed")
	got := make([]uint32, len(src))
	require.Nil(t, ctx.FromDevice(got, buf), "DtoH failed")
	require.Equal(t, src, got, "Round trip mismatch")
}
