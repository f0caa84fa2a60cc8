package eventlog

import (
	"fmt"
	"strconv"
	"time"
)

// FormatTimestamp renders t in local time as HH:MM:SS:mmm.
func FormatTimestamp(t time.Time) string {
	t = t.Local()

	return fmt.Sprintf("%02d:%02d:%02d:%03d",
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}

// FormatSeconds renders a duration in seconds with six significant digits,
// switching to exponent notation for very small or large values.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'g', 6, 64)
}
