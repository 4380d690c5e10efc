// Package fidelity converts scraped Fidelity activity records into model types.
package fidelity

import (
	"fmt"
	"strconv"
	"strings"
)

// DateFormatError indicates a source date string that does not match the
// expected MMM-DD-YYYY activity-feed format.
type DateFormatError struct {
	Input  string
	Reason string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid source date %q: %s", e.Input, e.Reason)
}

var monthAbbreviations = map[string]string{
	"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
	"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
	"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
}

// ParseDate normalizes a feed date like "Jan-12-2026" to ISO "2026-01-12".
func ParseDate(dateStr string) (string, error) {
	if strings.TrimSpace(dateStr) == "" {
		return "", &DateFormatError{Input: dateStr, Reason: "empty"}
	}

	parts := strings.Split(dateStr, "-")
	if len(parts) != 3 {
		return "", &DateFormatError{Input: dateStr, Reason: "expected MMM-DD-YYYY"}
	}

	month, ok := monthAbbreviations[parts[0]]
	if !ok {
		return "", &DateFormatError{Input: dateStr, Reason: fmt.Sprintf("unknown month %q", parts[0])}
	}

	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 1 || day > 31 {
		return "", &DateFormatError{Input: dateStr, Reason: fmt.Sprintf("invalid day %q", parts[1])}
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 {
		return "", &DateFormatError{Input: dateStr, Reason: fmt.Sprintf("invalid year %q", parts[2])}
	}

	return fmt.Sprintf("%04d-%s-%02d", year, month, day), nil
}
