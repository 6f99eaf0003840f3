package benchmark

// Benchmark runners for the LV2 sort paths. Each runner sorts the same
// bucket repeatedly, records wall time per trial, and verifies the resulting
// permutation so a fast-but-wrong path can't win.

import (
	"github.com/pkg/errors"

	"github.com/mkoohim/megahit/pkg/lv2"
)

// BenchHostSort times the host fallback path.
func BenchHostSort(sub lv2.SubstringSet, trials int, stats SortStats) error {
	tTotal := stats.timer("TTotal")
	perm := make([]uint32, sub.Items())

	for trial := 0; trial < trials; trial++ {
		tTotal.Start()
		err := lv2.SortHost(sub, perm)
		tTotal.Record()

		if err != nil {
			return errors.Wrapf(err, "Host sort failed on trial %v", trial)
		}
		if err := lv2.CheckPermutation(sub, perm); err != nil {
			return errors.Wrapf(err, "Host sort produced a bad permutation on trial %v", trial)
		}
	}
	return nil
}

// BenchDeviceSort times the device path (including staging and retrieval,
// which is what the pipeline actually pays).
func BenchDeviceSort(dev lv2.Device, sub lv2.SubstringSet, trials int, stats SortStats) error {
	tTotal := stats.timer("TTotal")
	sorter := lv2.NewSorter(dev)
	perm := make([]uint32, sub.Items())

	for trial := 0; trial < trials; trial++ {
		tTotal.Start()
		err := sorter.Sort(sub, perm)
		tTotal.Record()

		if err != nil {
			return errors.Wrapf(err, "Device sort failed on trial %v", trial)
		}
		if err := lv2.CheckPermutation(sub, perm); err != nil {
			return errors.Wrapf(err, "Device sort produced a bad permutation on trial %v", trial)
		}
	}
	return nil
}
