package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date conventions for resolving ambiguous numeric dates.
const (
	ConventionDMY = "dmy"
	ConventionMDY = "mdy"
)

// unambiguousFormats parse without any day/month ordering question: ISO and
// textual-month variants. They are tried, in order, before the numeric path.
var unambiguousFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var numericDatePattern = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)

// ParseDate parses a source date cell against the accepted formats. The
// first format that parses unambiguously wins. A numeric date that parses
// under both day/month orderings with different results is resolved using
// the given convention and reported as ambiguous, so the resolution can be
// surfaced as an advisory issue for audit.
func ParseDate(value, convention string) (t time.Time, ambiguous bool, err error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty date value")
	}

	// Drop a trailing time-of-day component some exports carry.
	if idx := strings.IndexByte(s, ' '); idx > 0 && strings.Contains(s[idx:], ":") {
		s = s[:idx]
	}

	for _, format := range unambiguousFormats {
		if parsed, perr := time.Parse(format, s); perr == nil {
			return parsed, false, nil
		}
	}

	m := numericDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false, fmt.Errorf("unrecognized date format: %q", value)
	}

	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	switch {
	case a > 12 && b > 12:
		return time.Time{}, false, fmt.Errorf("invalid date: %q", value)
	case a > 12:
		// First field can only be a day.
		return makeDate(year, b, a)
	case b > 12:
		// Second field can only be a day.
		return makeDate(year, a, b)
	case a == b:
		// Both orderings agree.
		return makeDate(year, a, b)
	}

	// Genuinely ambiguous: both orderings are valid and differ. Resolve by
	// convention and report it.
	var month, day int
	if convention == ConventionMDY {
		month, day = a, b
	} else {
		day, month = a, b
	}
	t, _, err = makeDate(year, month, day)
	return t, err == nil, err
}

func makeDate(year, month, day int) (time.Time, bool, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false, fmt.Errorf("invalid date components %04d-%02d-%02d", year, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 1); reject that.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false, fmt.Errorf("invalid calendar date %04d-%02d-%02d", year, month, day)
	}
	return t, false, nil
}
