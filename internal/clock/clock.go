package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since reports the wall time elapsed since t, measured through NowFunc so
// checkpoint timers stay deterministic under a stubbed clock.
func Since(t time.Time) time.Duration { return NowFunc().Sub(t) }
