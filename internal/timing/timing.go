package timing

import "time"

// Stopwatch measures elapsed wall time for a pipeline stage.
type Stopwatch struct {
	start time.Time
}

// Start returns a stopwatch running from now.
func Start() Stopwatch {
	return Stopwatch{start: time.Now()}
}

// Elapsed returns the time since the stopwatch was started.
func (s Stopwatch) Elapsed() time.Duration {
	return time.Since(s.start)
}

// ElapsedMs returns the elapsed time in whole milliseconds, as stored
// on run records.
func (s Stopwatch) ElapsedMs() int64 {
	return time.Since(s.start).Milliseconds()
}
