package benchmark

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkoohim/megahit/pkg/lv2"
)

func TestPerfTimer(t *testing.T) {
	timer := &PerfTimer{}

	timer.Start()
	time.Sleep(time.Millisecond)
	timer.Record()
	timer.Start()
	timer.Record()
	require.Len(t, timer.Vals, 2, "Record must add one datapoint per call")
	require.Greater(t, timer.Vals[0], float64(0))

	other := &PerfTimer{Vals: []float64{1, 2}}
	timer.Update(other)
	require.Len(t, timer.Vals, 4, "Update must merge datapoints")
	require.Len(t, other.Vals, 2, "Update must not modify its argument")
}

func TestBenchHostSort(t *testing.T) {
	sub := lv2.RandomSubstrings(500, 2)
	stats := SortStats{}

	require.Nil(t, BenchHostSort(sub, 3, stats), "Benchmark failed")
	require.Len(t, stats["TTotal"].Vals, 3, "Expected one datapoint per trial")

	var out bytes.Buffer
	ReportStats(stats, &out)
	require.Contains(t, out.String(), "TTotal (mean)", "Report missing the mean")
	require.Contains(t, out.String(), "TTotal (median)", "Report missing the median")
}
