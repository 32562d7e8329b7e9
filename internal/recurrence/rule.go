// Package recurrence parses the compact recurrence rules stored on
// appointments and availabilities and expands them into concrete instances.
package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is the base stepping unit of a rule.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Yearly
)

var frequencyNames = [...]string{
	Daily:   "DAILY",
	Weekly:  "WEEKLY",
	Monthly: "MONTHLY",
	Yearly:  "YEARLY",
}

func (f Frequency) String() string {
	if f < Daily || f > Yearly {
		return frequencyNames[Weekly]
	}
	return frequencyNames[f]
}

// dayCodes is indexed by time.Weekday.
var dayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// DayCode returns the two-letter code of a weekday.
func DayCode(d time.Weekday) string {
	return dayCodes[d%7]
}

func parseDayCode(s string) (time.Weekday, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, code := range dayCodes {
		if code == s {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

const (
	untilDateLayout    = "20060102"
	untilInstantLayout = "20060102T150405Z"
)

// Rule is the parsed form of a recurrence string such as
// "FREQ=WEEKLY;INTERVAL=1;BYDAY=MO,WE,FR;COUNT=10".
type Rule struct {
	Freq     Frequency
	Interval int
	// Count is the total number of instances including the first one.
	// Zero means the series is bounded by Until or the expansion limits.
	Count      int
	ByDays     []time.Weekday
	ByMonthDay int // 0 when unset
	Until      *time.Time
}

// MaxInterval is the largest INTERVAL a rule keeps. Larger values are
// clamped so date arithmetic stays far from overflow.
const MaxInterval = 1000

// Parse reads a rule string. It never fails: missing or malformed parts fall
// back to their defaults (weekly, interval 1, unbounded).
func Parse(s string) Rule {
	r := Rule{Freq: Weekly, Interval: 1}

	s = strings.TrimSpace(s)
	if len(s) >= 6 && strings.EqualFold(s[:6], "RRULE:") {
		s = s[6:]
	}

	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "FREQ":
			r.Freq = parseFrequency(value)
		case "INTERVAL":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				r.Interval = min(n, MaxInterval)
			}
		case "COUNT":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				r.Count = n
			}
		case "BYDAY":
			r.ByDays = parseDays(value)
		case "BYMONTHDAY":
			if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 31 {
				r.ByMonthDay = n
			}
		case "UNTIL":
			if t, ok := parseUntil(value); ok {
				r.Until = &t
			}
		}
	}
	return r
}

func parseFrequency(s string) Frequency {
	switch strings.ToUpper(s) {
	case "DAILY":
		return Daily
	case "MONTHLY":
		return Monthly
	case "YEARLY":
		return Yearly
	default:
		return Weekly
	}
}

func parseDays(s string) []time.Weekday {
	var (
		days []time.Weekday
		seen [7]bool
	)
	for _, token := range strings.Split(s, ",") {
		d, ok := parseDayCode(token)
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	return days
}

// parseUntil accepts a bare date (end of that day, UTC) or a UTC instant.
// Both results are truncated to whole seconds.
func parseUntil(s string) (time.Time, bool) {
	s = strings.ToUpper(s)
	if t, err := time.Parse(untilInstantLayout, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(untilDateLayout, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC), true
	}
	return time.Time{}, false
}

// HasDays reports whether the rule pins explicit weekdays of a weekly series.
func (r Rule) HasDays() bool {
	return r.Freq == Weekly && len(r.ByDays) > 0
}

// Matches reports whether t falls on one of the rule's weekdays. Rules without
// explicit weekdays match every date.
func (r Rule) Matches(t time.Time) bool {
	if !r.HasDays() {
		return true
	}
	wd := t.Weekday()
	for _, d := range r.ByDays {
		if d == wd {
			return true
		}
	}
	return false
}

// ShiftDays returns the rule with every BYDAY weekday moved n days, so that a
// series moved by n calendar days keeps matching it.
func (r Rule) ShiftDays(n int) Rule {
	if len(r.ByDays) == 0 || n%7 == 0 {
		return r
	}
	days := make([]time.Weekday, len(r.ByDays))
	for i, d := range r.ByDays {
		days[i] = time.Weekday(((int(d)+n)%7 + 7) % 7)
	}
	r.ByDays = days
	return r
}

// Bounded reports whether COUNT or UNTIL limits the series.
func (r Rule) Bounded() bool {
	return r.Count > 0 || r.Until != nil
}

// String renders the canonical form of the rule.
func (r Rule) String() string {
	parts := []string{"FREQ=" + r.Freq.String()}

	interval := r.Interval
	if interval < 1 {
		interval = 1
	}
	parts = append(parts, fmt.Sprintf("INTERVAL=%d", interval))

	if len(r.ByDays) > 0 {
		codes := make([]string, len(r.ByDays))
		for i, d := range r.ByDays {
			codes[i] = DayCode(d)
		}
		parts = append(parts, "BYDAY="+strings.Join(codes, ","))
	}
	if r.ByMonthDay > 0 {
		parts = append(parts, fmt.Sprintf("BYMONTHDAY=%d", r.ByMonthDay))
	}
	if r.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", r.Count))
	}
	if r.Until != nil {
		parts = append(parts, "UNTIL="+r.Until.UTC().Format(untilInstantLayout))
	}
	return strings.Join(parts, ";")
}

// Equal compares two rule strings by their parsed meaning.
func Equal(a, b string) bool {
	return Parse(a).String() == Parse(b).String()
}
