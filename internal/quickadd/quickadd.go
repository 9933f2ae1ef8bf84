// Package quickadd turns free text into task titles, pulling out an embedded
// date or date-time when one is present.
//
// Two forms are recognized, first match wins:
//
//	2024/12/03 10:00   2024-12-3 9:05   full date and time
//	10-13              12/3             month-day in the current year at midnight
//
// Only one date is extracted per line. Values that do not name a real calendar
// date or clock time are left in the title untouched.
package quickadd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	fullDatePattern  = regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}\s\d{1,2}:\d{2}`)
	shortDatePattern = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}`)
)

// Result is the outcome of parsing a single line
type Result struct {
	Title       string
	ScheduledAt *time.Time
}

// SplitLines splits multi-line input and drops blank lines, preserving order
func SplitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ParseLine extracts an optional date from line. now supplies the year for the
// short month-day form. A line holding only a date yields an empty title; callers
// decide whether that is acceptable.
func ParseLine(line string, now time.Time) Result {
	if loc := fullDatePattern.FindStringIndex(line); loc != nil {
		at, ok := parseFull(line[loc[0]:loc[1]])
		if !ok {
			return Result{Title: strings.TrimSpace(line)}
		}
		return Result{Title: cut(line, loc), ScheduledAt: &at}
	}

	if loc := shortDatePattern.FindStringIndex(line); loc != nil {
		at, ok := parseShort(line[loc[0]:loc[1]], now.Year())
		if !ok {
			return Result{Title: strings.TrimSpace(line)}
		}
		return Result{Title: cut(line, loc), ScheduledAt: &at}
	}

	return Result{Title: strings.TrimSpace(line)}
}

// ParseSchedule parses a schedule typed into the edit form or passed on the
// command line. Accepted: "YYYY-MM-DD HH:mm[:ss]", "YYYY-MM-DD", with "/" or "T"
// also allowed as separators. An empty string means no schedule.
func ParseSchedule(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	normalized := strings.ReplaceAll(s, "/", "-")
	normalized = strings.Replace(normalized, "T", " ", 1)

	for _, layout := range []string{"2006-1-2 15:04:05", "2006-1-2 15:04", "2006-1-2"} {
		t, err := time.ParseInLocation(layout, normalized, time.Local)
		if err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid schedule %q: want YYYY-MM-DD [HH:mm]", s)
}

// cut removes line[loc[0]:loc[1]] and joins what is left with a single space
func cut(line string, loc []int) string {
	before := strings.TrimSpace(line[:loc[0]])
	after := strings.TrimSpace(line[loc[1]:])
	switch {
	case before == "":
		return after
	case after == "":
		return before
	default:
		return before + " " + after
	}
}

func parseFull(match string) (time.Time, bool) {
	n := numbers(match)
	if len(n) != 5 {
		return time.Time{}, false
	}
	year, month, day, hour, minute := n[0], n[1], n[2], n[3], n[4]
	if !validDate(year, month, day) || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), true
}

func parseShort(match string, year int) (time.Time, bool) {
	n := numbers(match)
	if len(n) != 2 {
		return time.Time{}, false
	}
	month, day := n[0], n[1]
	if !validDate(year, month, day) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

func numbers(s string) []int {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	// day 0 of the following month is the last day of this one
	return day <= time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
