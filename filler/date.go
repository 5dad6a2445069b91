package filler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const datePrefix = "TerrainDate"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// relativeDate expands `TerrainDate.{ThisWeek|NextWeek}.{0-6}[suffix]` to a
// date relative to the Sunday starting the current week. The optional
// suffix, such as `T00:00:00+00:00`, is appended and must form a valid
// timestamp.
func relativeDate(now time.Time, spec string) (string, error) {
	parts := strings.Split(spec, ".")
	if len(parts) < 3 || parts[0] != datePrefix || (parts[1] != "ThisWeek" && parts[1] != "NextWeek") {
		return "", fmt.Errorf("%w: %s, expected %s.{ThisWeek|NextWeek}.[0-6]{T00:00:00+00:00}",
			ErrInvalidDate, spec, datePrefix)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 0 || day > 6 {
		return "", fmt.Errorf("%w: %s, day must be between 0 and 6", ErrInvalidDate, spec)
	}

	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -int(now.Weekday()))
	if parts[1] == "NextWeek" {
		start = start.AddDate(0, 0, 7)
	}

	date := start.AddDate(0, 0, day).Format("2006-01-02")
	if len(parts) > 3 {
		date += strings.Join(parts[3:], ".")
		if !validTimestamp(date) {
			return "", fmt.Errorf("%w: %s produces %q", ErrInvalidDate, spec, date)
		}
	}
	return date, nil
}

func validTimestamp(s string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
