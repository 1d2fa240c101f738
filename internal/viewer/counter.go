package viewer

import (
	"context"
	"strings"
	"time"
)

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Elapsed is the relationship counter display value.
type Elapsed struct {
	Days    int64 `json:"days"`
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
	Seconds int64 `json:"seconds"`
}

// ElapsedSince splits now-start, in epoch milliseconds, into counter units.
// A start in the future yields a zero counter.
func ElapsedSince(start, now time.Time) Elapsed {
	ms := now.UnixMilli() - start.UnixMilli()
	if ms < 0 {
		ms = 0
	}
	return Elapsed{
		Days:    ms / msPerDay,
		Hours:   (ms / msPerHour) % 24,
		Minutes: (ms / msPerMinute) % 60,
		Seconds: (ms / msPerSecond) % 60,
	}
}

var startDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseStartDate reads the album's relationship start date. Values without a
// zone are taken as UTC. It reports false for empty or unparsable input.
func ParseStartDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Watch calls fn with a fresh counter value right away and then on every
// tick, until ctx is cancelled.
func Watch(ctx context.Context, start time.Time, interval time.Duration, now func() time.Time, fn func(Elapsed)) {
	fn(ElapsedSince(start, now()))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ElapsedSince(start, now()))
		}
	}
}
