// Package dates turns spoken Portuguese date phrases ("amanhã", "dia 7",
// "7 de dezembro") into calendar dates.
//
// All dates are date-only values: midnight UTC of the calendar day.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Months maps a lowercase month name to its number.
type Months map[string]time.Month

// DefaultMonths is the pt-BR month table.
func DefaultMonths() Months {
	return Months{
		"janeiro":   time.January,
		"fevereiro": time.February,
		"março":     time.March,
		"marco":     time.March,
		"abril":     time.April,
		"maio":      time.May,
		"junho":     time.June,
		"julho":     time.July,
		"agosto":    time.August,
		"setembro":  time.September,
		"outubro":   time.October,
		"novembro":  time.November,
		"dezembro":  time.December,
	}
}

var (
	dayOfMonthRe = regexp.MustCompile(`(?:^|\D)(\d{1,2})\s+de\s+(\p{L}+)`)
	dayOnlyRe    = regexp.MustCompile(`(?:^|\s)dia\s+(\d{1,2})(?:\D|$)`)
)

// Parser resolves date phrases against a caller-supplied "today".
type Parser struct {
	months   Months
	tomorrow string
	today    string
}

// NewParser builds a parser for the given month table. A nil table means
// DefaultMonths.
func NewParser(months Months) *Parser {
	if months == nil {
		months = DefaultMonths()
	}
	m := make(Months, len(months))
	for k, v := range months {
		m[strings.ToLower(k)] = v
	}
	return &Parser{months: m, tomorrow: "amanhã", today: "hoje"}
}

// Parse returns the first date phrase found in text. The rules are tried in
// order: "amanhã", "hoje", "<day> de <month>", "dia <day>". The boolean is
// false when no rule produced a valid date; it never defaults to today.
func (p *Parser) Parse(text string, today time.Time) (time.Time, bool) {
	text = strings.ToLower(text)
	today = Day(today)

	if strings.Contains(text, p.tomorrow) {
		return today.AddDate(0, 0, 1), true
	}
	if strings.Contains(text, p.today) {
		return today, true
	}
	if d, ok := p.dayOfMonth(text, today); ok {
		return d, true
	}
	return p.dayOnly(text, today)
}

func (p *Parser) dayOfMonth(text string, today time.Time) (time.Time, bool) {
	for _, m := range dayOfMonthRe.FindAllStringSubmatch(text, -1) {
		month, ok := p.months[m[2]]
		if !ok {
			continue
		}
		day, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		candidate, ok := Date(today.Year(), month, day)
		if !ok {
			return time.Time{}, false
		}
		if candidate.Before(today) {
			return Date(today.Year()+1, month, day)
		}
		return candidate, true
	}
	return time.Time{}, false
}

func (p *Parser) dayOnly(text string, today time.Time) (time.Time, bool) {
	m := dayOnlyRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	candidate, ok := Date(today.Year(), today.Month(), day)
	if !ok {
		return time.Time{}, false
	}
	if !candidate.Before(today) {
		return candidate, true
	}
	year, month := today.Year(), today.Month()+1
	if today.Month() == time.December {
		year, month = year+1, time.January
	}
	return Date(year, month, day)
}

// Date builds a date-only value and reports whether the day exists in that
// month (time.Date would silently normalize 31 April into 1 May).
func Date(year int, month time.Month, day int) (time.Time, bool) {
	if day < 1 || month < time.January || month > time.December {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// Day truncates t to its calendar day in t's own location, returned as
// midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ISO formats a date-only value as YYYY-MM-DD.
func ISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// ParseISO parses YYYY-MM-DD. Longer values (RFC 3339 timestamps returned by
// some drivers for DATE columns) are cut to their date prefix.
func ParseISO(s string) (time.Time, error) {
	if len(s) > 10 {
		s = s[:10]
	}
	return time.Parse("2006-01-02", s)
}
