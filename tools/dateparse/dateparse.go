package dateparse

import (
	"fmt"
	"time"
)

// ParseDate attempts to parse a calendar date with multiple formats
func ParseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",          // ISO date
		"02/01/2006",          // DD/MM/YYYY
		time.RFC3339,          // Standard RFC3339
		"2006-01-02T15:04:05", // RFC3339 without offset
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", dateStr, lastErr)
}
