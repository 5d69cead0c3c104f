package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// iso8601DurationPattern matches the subset of ISO-8601 durations the
// pipeline document format needs (§6: "time: duration (e.g. \"PT3S\")") —
// days and a time-of-day component of hours/minutes/seconds, optionally
// fractional.
var iso8601DurationPattern = regexp.MustCompile(
	`^P(?:(\d+)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`,
)

// ParseDuration accepts either a Go-style duration string ("3s", "1h30m")
// or an ISO-8601 duration ("PT3S", "P1DT2H"). No example in the retrieval
// pack carries a dedicated ISO-8601 duration library (see DESIGN.md), so
// this is a small hand-rolled parser covering the day/hour/minute/second
// subset the pipeline document format actually uses.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	m := iso8601DurationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" {
		return 0, fmt.Errorf("models: invalid duration %q", s)
	}

	var total time.Duration
	if m[1] != "" {
		days, _ := strconv.Atoi(m[1])
		total += time.Duration(days) * 24 * time.Hour
	}
	if m[2] != "" {
		hours, _ := strconv.ParseFloat(m[2], 64)
		total += time.Duration(hours * float64(time.Hour))
	}
	if m[3] != "" {
		minutes, _ := strconv.ParseFloat(m[3], 64)
		total += time.Duration(minutes * float64(time.Minute))
	}
	if m[4] != "" {
		seconds, _ := strconv.ParseFloat(m[4], 64)
		total += time.Duration(seconds * float64(time.Second))
	}
	return total, nil
}

// FormatISO8601 renders d as an ISO-8601 "PT" duration, the inverse of
// ParseDuration for the seconds-granularity durations Limits.Time uses.
func FormatISO8601(d time.Duration) string {
	if d == 0 {
		return "PT0S"
	}
	return fmt.Sprintf("PT%gS", d.Seconds())
}
