package utils

import (
	"fmt"
	"time"
)

const (
	// StorageDateFormat is the calendar-day format used in vector ids,
	// cache shard keys and override lookups.
	StorageDateFormat = "2006-01-02"

	// DisplayDateFormat spells out the month for prompt-facing text.
	DisplayDateFormat = "January 2, 2006"

	// ShortDisplayDateFormat is used when citing session dates in answers.
	ShortDisplayDateFormat = "Jan 2, 2006"
)

// ParseStorageDate validates a calendar day in storage format.
func ParseStorageDate(value string) (time.Time, error) {
	t, err := time.Parse(StorageDateFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session date %q: %w", value, err)
	}
	return t, nil
}

// SpellOutDate converts a storage-format day into its spelled-out form
// (e.g. "2025-03-04" -> "March 4, 2025").
func SpellOutDate(value string) (string, error) {
	t, err := ParseStorageDate(value)
	if err != nil {
		return "", err
	}
	return t.Format(DisplayDateFormat), nil
}

// Today returns the current calendar day in storage format.
func Today() string {
	return time.Now().Format(StorageDateFormat)
}
