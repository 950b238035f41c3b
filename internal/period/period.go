package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Name returns a statement name like "2025-01".
func Name(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// NameFor returns the statement name for a transaction date.
func NameFor(date time.Time) string {
	return Name(date.Year(), int(date.Month()))
}

// Parse parses "2025-01" into year, month.
func Parse(name string) (year, month int, err error) {
	parts := strings.SplitN(name, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid statement name format: %q", name)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in statement name %q: %w", name, err)
	}

	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month in statement name %q: %w", name, err)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month out of range in statement name %q", name)
	}

	return year, month, nil
}

// End returns the last calendar day of the named month.
// "2023-02" -> 2023-02-28; leap years handled.
func End(name string) (time.Time, error) {
	year, month, err := Parse(name)
	if err != nil {
		return time.Time{}, err
	}
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC), nil
}
