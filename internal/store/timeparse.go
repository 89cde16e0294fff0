package store

import (
	"fmt"
	"strings"
	"time"
)

var flexibleFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseFlexibleTime accepts YYYY-MM-DD with optional HH:MM[:SS], with
// underscores tolerated in place of dashes, interpreted in local time.
func ParseFlexibleTime(value string) (time.Time, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), "_", "-")
	for _, format := range flexibleFormats {
		if ts, err := time.ParseInLocation(format, normalized, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q: expected YYYY-MM-DD, YYYY-MM-DD HH:MM, or YYYY-MM-DD HH:MM:SS", value)
}

// ParseDay accepts YYYY-MM-DD or YYYY_MM_DD.
func ParseDay(value string) (time.Time, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), "_", "-")
	ts, err := time.ParseInLocation("2006-01-02", normalized, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: expected YYYY-MM-DD or YYYY_MM_DD", value)
	}
	return ts, nil
}

// FormatAge renders a compact age string such as "2h 3m".
func FormatAge(d time.Duration) string {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}

	minutes, seconds := total/60, total%60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours, minutes := minutes/60, minutes%60
	if hours < 24 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}

	days, hours := hours/24, hours%24
	return fmt.Sprintf("%dd %dh", days, hours)
}
