package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	fullDatePattern = regexp.MustCompile(`^(\d{4}|\d{2})[./-](\d{1,2})[./-](\d{1,2})\.?(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?`)
	relativePattern = regexp.MustCompile(`(\d+)\s*(시간|분|일)\s*전`)
	timeOnlyPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	monthDayPattern = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})$`)
	justNowTokens   = []string{"방금", "just now"}
)

// ParseDate converts a board's date text into an absolute time, trying in
// order: a full date (YY.MM.DD or YYYY.MM.DD, also with / or - and an
// optional time), a relative offset ("3시간 전"), a bare time of day and
// finally a month-day in now's year. Unrecognised text yields now.
func ParseDate(text string, now time.Time) time.Time {
	t, _ := ParseDateStrict(text, now)
	return t
}

// ParseDateStrict is ParseDate that also reports whether a pattern matched.
// On false the returned time is now.
func ParseDateStrict(text string, now time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return now, false
	}
	loc := now.Location()

	if m := fullDatePattern.FindStringSubmatch(text); m != nil {
		year := atoi(m[1])
		if len(m[1]) == 2 {
			year += 2000
		}
		month, day := atoi(m[2]), atoi(m[3])
		hour, minute, sec := atoi(m[4]), atoi(m[5]), atoi(m[6])
		if t, ok := buildDate(year, month, day, hour, minute, sec, loc); ok {
			return t, true
		}
	}

	for _, tok := range justNowTokens {
		if strings.Contains(strings.ToLower(text), tok) {
			return now, true
		}
	}

	if m := relativePattern.FindStringSubmatch(text); m != nil {
		n := atoi(m[1])
		switch m[2] {
		case "분":
			return now.Add(-time.Duration(n) * time.Minute), true
		case "시간":
			return now.Add(-time.Duration(n) * time.Hour), true
		case "일":
			return now.AddDate(0, 0, -n), true
		}
	}

	if m := timeOnlyPattern.FindStringSubmatch(text); m != nil {
		y, mo, d := now.Date()
		if t, ok := buildDate(y, int(mo), d, atoi(m[1]), atoi(m[2]), atoi(m[3]), loc); ok {
			return t, true
		}
	}

	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		if t, ok := buildDate(now.Year(), atoi(m[1]), atoi(m[2]), 0, 0, 0, loc); ok {
			return t, true
		}
	}

	return now, false
}

// buildDate rejects out-of-range components instead of letting time.Date
// normalise them into a different day.
func buildDate(year, month, day, hour, minute, sec int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
