//go:build !unix

package stats

import "runtime"

func cpuTimes() (usr, sys float64) {
	return 0, 0
}

func maxRSSKB() float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return float64(stats.HeapInuse) / 1024
}
