// Package timing provides wall-clock access and randomized delays for the
// agents.
package timing

import "time"

// A Clock tells the wall-clock time and suspends the calling goroutine.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// WallClock is the Clock backed by the operating system.
type WallClock struct{}

// Now returns the current local time.
func (WallClock) Now() time.Time {
	return time.Now()
}

// Sleep pauses the current goroutine for at least d.
func (WallClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}

	time.Sleep(d)
}
