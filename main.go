package main

// Driver for the LV2 substring sort: generates a reproducible bucket of
// packed records, sorts it on the host and (when present) on the device,
// verifies both permutations, and reports timing statistics.

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mkoohim/megahit/pkg/benchmark"
	"github.com/mkoohim/megahit/pkg/cuda"
	"github.com/mkoohim/megahit/pkg/lv2"
)

func main() {
	retcode := 0
	defer func() { os.Exit(retcode) }()

	nitems := flag.Int64("items", 1<<20, "number of substring records in the bucket")
	words := flag.Int("words", 4, "words per substring record")
	trials := flag.Int("trials", 5, "number of timed trials per path")
	useGpu := flag.Bool("gpu", true, "attempt the device sort path")
	deviceIdx := flag.Int("device", 0, "device ordinal to bind")
	flag.Parse()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)

	log.Infof("Generating bucket: %v records x %v words", *nitems, *words)
	sub := lv2.RandomSubstrings(*nitems, *words)

	var dev lv2.Device
	if *useGpu {
		ctx, err := cuda.NewContext(*deviceIdx)
		if err != nil {
			log.Warnf("No usable CUDA device, running host path only: %v", err)
		} else {
			defer ctx.Close()
			free, total, _ := ctx.MemInfo()
			log.Infof("Bound device %v (%v MiB free of %v MiB)", ctx.Name(), free>>20, total>>20)
			dev = ctx
		}
	}

	hostStats := benchmark.SortStats{}
	if err := benchmark.BenchHostSort(sub, *trials, hostStats); err != nil {
		log.Errorf("Host sort benchmark failed: %v", err)
		retcode = 1
		return
	}
	fmt.Println("Host sort:")
	benchmark.ReportStats(hostStats, os.Stdout)

	if dev == nil {
		return
	}

	devStats := benchmark.SortStats{}
	if err := benchmark.BenchDeviceSort(dev, sub, *trials, devStats); err != nil {
		log.Errorf("Device sort benchmark failed: %v", err)
		retcode = 1
		return
	}
	fmt.Println("Device sort:")
	benchmark.ReportStats(devStats, os.Stdout)
}
