package utils

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the canonical stored form of every created_at/updated_at
// column. It is fixed-width and always UTC, so lexicographic order of two
// canonical values equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// DateLayout is the stored form of donation and OCR dates.
const DateLayout = "2006-01-02"

// Now returns the current time in canonical form.
func Now() string {
	return FormatTimestamp(time.Now())
}

// FormatTimestamp renders t in canonical form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts canonical timestamps as well as any RFC 3339 value
// (with or without fractional seconds or a non-UTC offset).
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(TimestampLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

// NormalizeTimestamp re-renders an RFC 3339 value in canonical form.
func NormalizeTimestamp(value string) (string, error) {
	t, err := ParseTimestamp(value)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}

// IsCanonicalTimestamp reports whether value is already in canonical form.
func IsCanonicalTimestamp(value string) bool {
	if len(value) != len(TimestampLayout) {
		return false
	}
	_, err := time.Parse(TimestampLayout, value)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// YearOf derives the tax year of a YYYY-MM-DD date.
func YearOf(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}
