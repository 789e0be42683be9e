package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	reDotGrouped  = regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3})+$`)
	reCommaGroup  = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+$`)
	reSerialFloat = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// Source spreadsheets mix Spanish and ISO date spellings; excelize can also
// hand back its own short form for date-formatted cells.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"01-02-06",
	"1/2/06 15:04",
	"02.01.2006",
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// ParseNumber reads a numeric cell. Spanish files use comma decimals and dot
// or space thousands groups; both are accepted. Returns nil for blank or
// non-numeric cells.
func ParseNumber(input string) *float64 {
	token := strings.ReplaceAll(NormalizeSpaces(input), " ", "")
	token = strings.ReplaceAll(token, " ", "")
	if token == "" {
		return nil
	}

	switch {
	case reDotGrouped.MatchString(token):
		token = strings.ReplaceAll(token, ".", "")
	case reCommaGroup.MatchString(token):
		token = strings.ReplaceAll(token, ",", "")
	case strings.Contains(token, ",") && !strings.Contains(token, "."):
		token = strings.ReplaceAll(token, ",", ".")
	}

	parsed, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return FloatPtr(parsed)
}

// ParseDate reads a date cell. Returns nil for blank or unparseable cells;
// an unparseable date is treated as missing, never as a fatal error.
func ParseDate(input string) *time.Time {
	token := NormalizeSpaces(input)
	if token == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, token); err == nil {
			d := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}

	// Excel serial date number, e.g. 45321 for 2024-01-30.
	if reSerialFloat.MatchString(token) {
		if serial, err := strconv.ParseFloat(token, 64); err == nil && serial > 20000 && serial < 80000 {
			base := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
			d := base.AddDate(0, 0, int(serial))
			return &d
		}
	}

	return nil
}

// ParseHour reads a send-hour cell into [0,23]. Accepts "18", "18:00", "18h".
func ParseHour(input string) *int {
	token := strings.TrimSuffix(strings.ToLower(NormalizeSpaces(input)), "h")
	if idx := strings.Index(token, ":"); idx >= 0 {
		token = token[:idx]
	}
	if token == "" {
		return nil
	}
	parsed, err := strconv.Atoi(token)
	if err != nil || parsed < 0 || parsed > 23 {
		return nil
	}
	return IntPtr(parsed)
}

// DaysBetween is the whole-day difference to - from, both truncated to
// midnight. Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }

func TimePtr(v time.Time) *time.Time { return &v }
