//go:build unix

package stats

import "golang.org/x/sys/unix"

// cpuTimes returns the user and system CPU seconds consumed by this OS
// process so far.
func cpuTimes() (usr, sys float64) {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0, 0
	}
	return timevalSeconds(usage.Utime), timevalSeconds(usage.Stime)
}

// maxRSSKB returns the peak resident set size of this OS process in
// kilobytes.
func maxRSSKB() float64 {
	var usage unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &usage); err != nil {
		return 0
	}
	return float64(usage.Maxrss)
}

func timevalSeconds(tv unix.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}
