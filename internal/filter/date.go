package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Deadline texts that mean the listing stays open.
var openEnded = []string{"招满为止", "长期有效", "不限", "滚动招聘", "尽快"}

var (
	cnDateRegex     = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
	cnMonthDayRegex = regexp.MustCompile(`^(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
	monthDayRegex   = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})$`)
	looseDateRegex  = regexp.MustCompile(`(\d{4})\D(\d{1,2})\D(\d{1,2})`)
)

// timed layouts carry a clock, so the deadline is that exact instant
var timedLayouts = []string{
	"2006-1-2 15:04:05", "2006-1-2 15:04",
	"2006/1/2 15:04:05", "2006/1/2 15:04",
	"2006.1.2 15:04",
}

var dateLayouts = []string{"2006-1-2", "2006/1/2", "2006.1.2"}

// ParseDeadline turns the free-form deadline column into the last instant the listing
// accepts applications. ok is false for open-ended or unreadable deadlines.
func ParseDeadline(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(Normalize(s))
	if s == "" || s == "-" || s == "n/a" {
		return time.Time{}, false
	}
	for _, word := range openEnded {
		if strings.Contains(s, word) {
			return time.Time{}, false
		}
	}

	loc := now.Location()

	//case 1: full date with clock
	for _, layout := range timedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	//case 2: date only, open until the end of that day
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return endOfDay(t), true
		}
	}

	//case 3: 2025年10月31日
	if m := cnDateRegex.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3], loc); ok {
			return endOfDay(t), true
		}
	}

	//case 4: month and day only, the year is inferred from now
	if m := cnMonthDayRegex.FindStringSubmatch(s); m != nil {
		return inferYear(m[1], m[2], now)
	}
	if m := monthDayRegex.FindStringSubmatch(s); m != nil {
		return inferYear(m[1], m[2], now)
	}

	//fallback: any yyyy?mm?dd inside the text
	if m := looseDateRegex.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3], loc); ok {
			return endOfDay(t), true
		}
	}

	return time.Time{}, false
}

// IsExpired reports whether the deadline day is over. A clock time on the deadline
// does not shorten that day. Unparseable deadlines never expire.
func IsExpired(deadline string, now time.Time) bool {
	t, ok := ParseDeadline(deadline, now)
	if !ok {
		return false
	}
	return now.After(endOfDay(t))
}

// IsRecent reports whether t lies within window before now.
func IsRecent(t, now time.Time, window time.Duration) bool {
	if t.IsZero() {
		return false
	}
	diff := now.Sub(t)
	if diff > window {
		return false
	}

	//reject if future date > 2 days (timezone issues)
	if diff < -2*24*time.Hour {
		return false
	}
	return true
}

func buildDate(y, m, d string, loc *time.Location) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	return validDate(year, month, day, loc)
}

func validDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	//time.Date normalises 02-30 into March; treat that as invalid
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// inferYear places a month/day deadline in the current year, or the next one when the
// date would otherwise lie more than half a year in the past (listings scraped in
// December with a January deadline).
func inferYear(m, d string, now time.Time) (time.Time, bool) {
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t, ok := validDate(now.Year(), month, day, now.Location())
	if !ok {
		return time.Time{}, false
	}
	if now.Sub(t) > 183*24*time.Hour {
		t, ok = validDate(now.Year()+1, month, day, now.Location())
		if !ok {
			return time.Time{}, false
		}
	}
	return endOfDay(t), true
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
