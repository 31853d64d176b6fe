package internal

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// LapTimeSeconds converts "1m 23.456s" or "45.100s" into seconds
func LapTimeSeconds(raw string) (decimal.Decimal, error) {
	s, _, _ := strings.Cut(strings.TrimSpace(raw), "s")
	minutes, seconds, hasMinutes := strings.Cut(s, "m")
	if !hasMinutes {
		seconds, minutes = minutes, ""
	}

	sec, err := decimal.NewFromString(strings.TrimSpace(seconds))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid lap time %q: %w", raw, err)
	}
	if !hasMinutes {
		return sec, nil
	}
	mins, err := decimal.NewFromString(strings.TrimSpace(minutes))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid lap time %q: %w", raw, err)
	}
	return mins.Mul(sixty).Add(sec), nil
}

// FormatSeconds renders seconds with three decimals and a comma separator,
// the format the destination spreadsheet parses as a number.
func FormatSeconds(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(3), ".", ",", 1)
}

// FormatLapTime converts a raw leaderboard lap time to the sheet format
func FormatLapTime(raw string) (string, error) {
	d, err := LapTimeSeconds(raw)
	if err != nil {
		return "", err
	}
	return FormatSeconds(d), nil
}

// ParseSeconds reads a value produced by FormatSeconds back into a number
func ParseSeconds(formatted string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.Replace(formatted, ",", ".", 1))
}
