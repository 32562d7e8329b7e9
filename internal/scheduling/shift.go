package scheduling

import (
	"time"

	"practice-scheduler-server/internal/models"
)

// shift moves instances by whole calendar days and then by a wall-clock
// offset, with separate offsets for start and end. Working on the wall clock
// keeps a 9:00 session at 9:00 on both sides of a DST change.
type shift struct {
	days  int
	start time.Duration
	end   time.Duration
}

// shiftBetween returns the shift that turns [oldStart, oldEnd) into
// [newStart, newEnd).
func shiftBetween(oldStart, oldEnd, newStart, newEnd time.Time) shift {
	days, startClock := delta(oldStart, newStart)
	endDays, endClock := delta(oldEnd, newEnd)
	return shift{
		days:  days,
		start: startClock,
		end:   endClock + time.Duration(endDays-days)*24*time.Hour,
	}
}

func (sh shift) zero() bool {
	return sh.days == 0 && sh.start == 0 && sh.end == 0
}

func (sh shift) apply(sc *models.Schedule) {
	sc.StartTime = moved(sc.StartTime, sh.days, sh.start)
	sc.EndTime = moved(sc.EndTime, sh.days, sh.end)
}

// delta returns the calendar-day and clock difference from one instant to
// another, both read in from's location.
func delta(from, to time.Time) (int, time.Duration) {
	to = to.In(from.Location())
	return civilDay(to) - civilDay(from), clockOf(to) - clockOf(from)
}

func moved(t time.Time, days int, clock time.Duration) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+days, 0, 0, 0, int(clockOf(t)+clock), t.Location())
}

func clockOf(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// civilDay numbers t's calendar date, ignoring its clock and offset.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
