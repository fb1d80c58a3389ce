package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date layout used everywhere a date is
// written out.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order after the canonical layout.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1-2-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var dayMonthPattern = regexp.MustCompile(`^(\d{1,2})[- ]([A-Za-z]{3})$`)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate parses the date formats found in hand-maintained roadmap sheets:
// ISO YYYY-MM-DD, M/D/YYYY, and D-Mon without a year. A yearless date
// resolves to the next occurrence of that day and month on or after today.
// Returns nil for empty or unparseable input.
func ParseDate(s string, today time.Time) *time.Time {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return nil
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := DateOnly(t)
			return &d
		}
	}

	m := dayMonthPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	month, ok := monthAbbrev[strings.ToLower(m[2])]
	if !ok {
		return nil
	}

	year := today.Year()
	if month < today.Month() || (month == today.Month() && day < today.Day()) {
		year++
	}
	// 29-Feb falls in the next leap year; time.Date normalises days a month
	// never has (31-Feb) into the next month, which stays unparseable.
	for i := 0; i < 4; i++ {
		t := time.Date(year+i, month, day, 0, 0, 0, 0, time.UTC)
		if t.Month() == month && t.Day() == day {
			return &t
		}
	}
	return nil
}

// DateOnly truncates t to midnight UTC on its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a nullable date in DateLayout, or "" for nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

// InclusiveDays returns ceil((finish - start) / 1 day) + 1.
func InclusiveDays(start, finish time.Time) int {
	days := finish.Sub(start).Hours() / 24
	return int(math.Ceil(days)) + 1
}
