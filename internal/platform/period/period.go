// Package period handles accounting periods written as "YYYY-MM".
package period

import (
	"fmt"
	"time"
)

const layout = "2006-01"

// Validate reports whether p is a well-formed period.
func Validate(p string) error {
	if _, err := time.Parse(layout, p); err != nil {
		return fmt.Errorf("invalid period %q: want YYYY-MM", p)
	}
	return nil
}

// Of returns the period containing t.
func Of(t time.Time) string {
	return t.UTC().Format(layout)
}

// Year returns the twelve periods of year in calendar order.
func Year(year int) []string {
	out := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, fmt.Sprintf("%04d-%02d", year, int(m)))
	}
	return out
}

// Bounds returns the half-open time range [start, end) covered by p.
func Bounds(p string) (time.Time, time.Time, error) {
	start, err := time.Parse(layout, p)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid period %q: want YYYY-MM", p)
	}
	return start, start.AddDate(0, 1, 0), nil
}
