package clock

import (
	"fmt"
	"time"
)

const layout = "2006-01-02T15:04:05Z"

// Clock returns the current time; components take one so tests can pin "now".
type Clock func() time.Time

func System() time.Time {
	return time.Now().UTC()
}

// Fixed returns a clock that always reports t
func Fixed(t time.Time) Clock {
	return func() time.Time {
		return t
	}
}

func Now() string {
	return Format(time.Now())
}

func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(layout)
}

// HoursMinutes renders a remaining duration like "23h 05m"; negative values render as zero
func HoursMinutes(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int(d/time.Minute) % 60
	return fmt.Sprintf("%dh %02dm", hours, minutes)
}
