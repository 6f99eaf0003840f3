package lv2

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestPlanDeterministic(t *testing.T) {
	planner := Planner{}

	first, err := planner.Plan(1<<20, 4, 1<<30)
	require.Nil(t, err, "Plan failed")
	for i := 0; i < 100; i++ {
		chunk, err := planner.Plan(1<<20, 4, 1<<30)
		require.Nil(t, err, "Plan failed on repeat %v", i)
		require.Equal(t, first, chunk, "Plan changed between identical calls")
	}
}

func TestPlanRespectsBudget(t *testing.T) {
	planner := Planner{}

	frees := []uint64{100, 4096, 1 << 16, 1 << 24, 1 << 33}
	words := []int{1, 2, 4, 8}
	for _, free := range frees {
		for _, w := range words {
			chunk, err := planner.Plan(free, w, 1<<40)
			if errors.Is(err, ErrInsufficientDeviceMemory) {
				// Legal only when a single record can't fit
				require.Less(t, uint64(float64(free)*DefaultSafetyFraction), perItemFootprint(w),
					"Spurious insufficient-memory for free=%v words=%v", free, w)
				continue
			}
			require.Nil(t, err, "Plan failed for free=%v words=%v", free, w)
			require.GreaterOrEqual(t, chunk, int64(1))
			require.LessOrEqual(t, uint64(chunk)*perItemFootprint(w), uint64(float64(free)*DefaultSafetyFraction),
				"Chunk footprint exceeds the safety-scaled budget")
		}
	}
}

func TestPlanClampsToItems(t *testing.T) {
	planner := Planner{}

	chunk, err := planner.Plan(1<<30, 2, 17)
	require.Nil(t, err, "Plan failed")
	require.Equal(t, int64(17), chunk, "Chunk must not exceed the bucket size")
}

func TestPlanEdges(t *testing.T) {
	planner := Planner{}

	chunk, err := planner.Plan(1<<30, 4, 0)
	require.Nil(t, err, "Zero items must plan without error")
	require.Zero(t, chunk)

	_, err = planner.Plan(4, 4, 100)
	require.True(t, errors.Is(err, ErrInsufficientDeviceMemory),
		"Expected ErrInsufficientDeviceMemory, got %v", err)

	_, err = planner.Plan(0, 1, 1)
	require.True(t, errors.Is(err, ErrInsufficientDeviceMemory),
		"Expected ErrInsufficientDeviceMemory for zero free bytes, got %v", err)
}

func TestPlanSafetyFraction(t *testing.T) {
	tight := Planner{SafetyFraction: 0.5}
	loose := Planner{SafetyFraction: 1.0}

	tightChunk, err := tight.Plan(1<<20, 4, 1<<30)
	require.Nil(t, err)
	looseChunk, err := loose.Plan(1<<20, 4, 1<<30)
	require.Nil(t, err)
	require.Less(t, tightChunk, looseChunk, "Smaller safety fraction must plan smaller chunks")
}
