package benchmark

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// A helper object for timing events. The timer can be reused across trials
// to derive averages and spreads (Record() saves the current measurement and
// begins a new one).
type PerfTimer struct {
	Vals  []float64 // the stats module wants float64
	cur   time.Duration
	start time.Time
}

// Begin (or resume) the timer
func (self *PerfTimer) Start() {
	self.start = time.Now()
}

// Stop (or pause) the timer
func (self *PerfTimer) Stop() {
	self.cur += time.Since(self.start)
}

// Finalize the timer, adding it as a new datapoint and resetting to 0.
func (self *PerfTimer) Record() {
	self.Stop()
	self.Vals = append(self.Vals, float64(self.cur))
	self.cur = 0
}

// Add the recorded values from other to this timer. Does not modify other.
func (self *PerfTimer) Update(other *PerfTimer) {
	self.Vals = append(self.Vals, other.Vals...)
}

// Collects timings for the phases of a sort run. Not every phase applies to
// every path (the host path has no staging phase).
type SortStats map[string]*PerfTimer

// timer returns the named timer, creating it on first use.
func (self SortStats) timer(name string) *PerfTimer {
	t, ok := self[name]
	if !ok {
		t = &PerfTimer{}
		self[name] = t
	}
	return t
}

// ReportStats prints mean, standard deviation, and median of every recorded
// timer in seconds.
func ReportStats(stats SortStats, writer io.Writer) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		timer := stats[name]
		vals := append([]float64(nil), timer.Vals...)
		sort.Float64s(vals)

		mean, stdev := stat.MeanStdDev(vals, nil)
		median := stat.Quantile(0.5, stat.Empirical, vals, nil)
		fmt.Fprintf(writer, "%v (mean):\t%vs\n", name, mean/1e9)
		fmt.Fprintf(writer, "%v (std):\t%vs\n", name, stdev/1e9)
		fmt.Fprintf(writer, "%v (median):\t%vs\n", name, median/1e9)
	}
}
