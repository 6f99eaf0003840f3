package lv2

// Chunk planning. Pure arithmetic over a free-memory snapshot: no device
// calls happen here, so for fixed inputs the plan is always the same.

// DefaultSafetyFraction leaves headroom for driver and context overhead that
// cuMemGetInfo does not account for.
const DefaultSafetyFraction = 0.95

// perItemFootprint is the device footprint of one staged record in bytes:
// the record's words plus one auxiliary buffer of the same size class, and
// the permutation entry padded to a power of two (at most 2x) plus its own
// same-class reserve.
func perItemFootprint(wordsPerItem int) uint64 {
	return uint64(8*wordsPerItem + 16)
}

// Planner sizes device chunks from a memory snapshot.
type Planner struct {
	// SafetyFraction scales the observed free bytes before planning.
	// Zero means DefaultSafetyFraction.
	SafetyFraction float64
}

// Plan returns the largest chunk of records (at most numItems) whose total
// device footprint fits in the safety-scaled free bytes. Returns 0 with no
// error when numItems is 0, and ErrInsufficientDeviceMemory when not even a
// single record fits.
func (self Planner) Plan(freeBytes uint64, wordsPerItem int, numItems int64) (int64, error) {
	if numItems <= 0 {
		return 0, nil
	}

	frac := self.SafetyFraction
	if frac <= 0 {
		frac = DefaultSafetyFraction
	}

	budget := uint64(float64(freeBytes) * frac)
	chunk := int64(budget / perItemFootprint(wordsPerItem))
	if chunk < 1 {
		return 0, ErrInsufficientDeviceMemory
	}
	if chunk > numItems {
		chunk = numItems
	}
	return chunk, nil
}
