package recurrence

import (
	"sort"
	"time"
)

// Occurrence is one concrete instance of a series.
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Limits bound the expansion of series that have neither COUNT nor UNTIL.
// MaxInstances applies to every series, bounded or not.
type Limits struct {
	MaxWeeks     int // week slots for weekly series, and the daily horizon in weeks
	MaxMonths    int // total instances of a monthly series
	MaxYears     int // total instances of a yearly series
	MaxInstances int // total instances of any series, origin included
}

// DefaultLimits keep an unbounded series to roughly two years of rows.
var DefaultLimits = Limits{
	MaxWeeks:  104,
	MaxMonths: 24,
	MaxYears:  5,

	MaxInstances: 1000,
}

func (l Limits) withDefaults() Limits {
	if l.MaxWeeks <= 0 {
		l.MaxWeeks = DefaultLimits.MaxWeeks
	}
	if l.MaxMonths <= 0 {
		l.MaxMonths = DefaultLimits.MaxMonths
	}
	if l.MaxYears <= 0 {
		l.MaxYears = DefaultLimits.MaxYears
	}
	if l.MaxInstances <= 0 {
		l.MaxInstances = DefaultLimits.MaxInstances
	}
	return l
}

// Expand returns the instances of rule starting at the origin [start, end).
// The origin is always the first element, whatever the rule says about its
// date. Every instance keeps the origin's wall-clock time and duration, and no
// instance starts after Until.
func Expand(start, end time.Time, rule Rule, limits Limits) []Occurrence {
	limits = limits.withDefaults()
	if rule.Interval < 1 {
		rule.Interval = 1
	}

	g := &generator{
		origin:   start,
		duration: end.Sub(start),
		rule:     rule,
		limit:    limits.MaxInstances,
		out:      []Occurrence{{Start: start, End: end}},
	}

	switch {
	case rule.HasDays():
		g.weeklyByDay(limits.MaxWeeks)
	case rule.Freq == Weekly:
		g.fixed(7*rule.Interval, limits.MaxWeeks, 0)
	case rule.Freq == Daily:
		g.fixed(rule.Interval, 0, limits.MaxWeeks*7)
	case rule.Freq == Monthly:
		g.calendar(rule.Interval, limits.MaxMonths)
	case rule.Freq == Yearly:
		g.calendar(12*rule.Interval, limits.MaxYears)
	}
	return g.out
}

type generator struct {
	origin   time.Time
	duration time.Duration
	rule     Rule
	limit    int
	out      []Occurrence
}

// full reports whether COUNT or the instance ceiling has been reached.
func (g *generator) full() bool {
	if len(g.out) >= g.limit {
		return true
	}
	return g.rule.Count > 0 && len(g.out) >= g.rule.Count
}

// advances reports whether t starts after the last emitted instance.
func (g *generator) advances(t time.Time) bool {
	return t.After(g.out[len(g.out)-1].Start)
}

// pastUntil reports whether t starts after UNTIL.
func (g *generator) pastUntil(t time.Time) bool {
	return g.rule.Until != nil && t.After(*g.rule.Until)
}

func (g *generator) emit(t time.Time) {
	g.out = append(g.out, Occurrence{Start: t, End: t.Add(g.duration)})
}

// at returns the origin's wall-clock time on the given date. Out of range
// days roll over the way time.Date normalizes them.
func (g *generator) at(year int, month time.Month, day int) time.Time {
	o := g.origin
	return time.Date(year, month, day, o.Hour(), o.Minute(), o.Second(), o.Nanosecond(), o.Location())
}

func (g *generator) weeklyByDay(maxWeeks int) {
	days := append([]time.Weekday(nil), g.rule.ByDays...)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	o := g.origin
	// Sunday that begins the origin's week.
	anchorDay := o.Day() - int(o.Weekday())

	for slot := 0; ; slot++ {
		if !g.rule.Bounded() && slot >= maxWeeks {
			return
		}
		base := anchorDay + slot*7*g.rule.Interval
		for _, d := range days {
			if g.full() {
				return
			}
			candidate := g.at(o.Year(), o.Month(), base+int(d))
			if !candidate.After(o) {
				// only the origin's own week holds earlier days
				if slot > 0 {
					return
				}
				continue
			}
			if !g.advances(candidate) {
				return
			}
			if g.pastUntil(candidate) {
				return
			}
			g.emit(candidate)
		}
		if g.full() {
			return
		}
	}
}

// fixed steps stepDays at a time. An unbounded series stops after maxSteps
// steps when maxSteps > 0, or once it is more than horizonDays past the origin.
func (g *generator) fixed(stepDays, maxSteps, horizonDays int) {
	o := g.origin
	horizon := g.at(o.Year(), o.Month(), o.Day()+horizonDays)

	for step := 1; ; step++ {
		if g.full() {
			return
		}
		if !g.rule.Bounded() && maxSteps > 0 && step > maxSteps {
			return
		}
		candidate := g.at(o.Year(), o.Month(), o.Day()+step*stepDays)
		if !g.advances(candidate) {
			return
		}
		if !g.rule.Bounded() && horizonDays > 0 && candidate.After(horizon) {
			return
		}
		if g.pastUntil(candidate) {
			return
		}
		g.emit(candidate)
	}
}

// calendar steps stepMonths at a time, pinning the day of month and clamping
// it to the month's length. An unbounded series stops at maxTotal instances.
func (g *generator) calendar(stepMonths, maxTotal int) {
	o := g.origin
	day := o.Day()
	if g.rule.ByMonthDay > 0 {
		day = g.rule.ByMonthDay
	}

	for step := 1; ; step++ {
		if g.full() {
			return
		}
		if !g.rule.Bounded() && len(g.out) >= maxTotal {
			return
		}
		months := int(o.Month()) - 1 + step*stepMonths
		year := o.Year() + months/12
		month := time.Month(months%12 + 1)

		d := day
		if last := daysIn(year, month); d > last {
			d = last
		}
		candidate := g.at(year, month, d)
		if !g.advances(candidate) {
			return
		}
		if g.pastUntil(candidate) {
			return
		}
		g.emit(candidate)
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
