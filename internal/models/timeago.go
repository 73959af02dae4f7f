package models

import (
	"fmt"
	"time"
)

const (
	secondsPerDay   = 24 * 60 * 60
	secondsPerWeek  = 7 * secondsPerDay
	secondsPerMonth = 30.44 * secondsPerDay
	secondsPerYear  = 365 * secondsPerDay
)

// TimeAgo renders the age of t relative to now, e.g. "5 minutes ago".
// Timestamps in the future render as "0 seconds ago".
func TimeAgo(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	if secs < 0 {
		secs = 0
	}

	switch {
	case secs < 60:
		return plural(secs, "second")
	case secs < secondsPerDay:
		return plural(secs/60, "minute")
	case secs < secondsPerWeek:
		return plural(secs/3600, "hour")
	case float64(secs) < secondsPerMonth:
		return plural(secs/secondsPerDay, "day")
	case secs < secondsPerYear:
		return plural(secs/secondsPerWeek, "week")
	default:
		return plural(secs/secondsPerYear, "year")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
