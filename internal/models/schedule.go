package models

import (
	"time"
)

// Schedule holds the timing and recurrence columns shared by every
// schedulable entity (appointments and availabilities).
//
// A series is one master row (RecurringParentID nil, RecurringRule set) and
// any number of children pointing back at it by id.
type Schedule struct {
	PracticeID        string    `gorm:"size:36;index" json:"practiceId"`
	ClinicianID       string    `gorm:"size:36;index" json:"clinicianId"`
	LocationID        string    `gorm:"size:36" json:"locationId"`
	Title             string    `gorm:"size:255" json:"title"`
	StartTime         time.Time `gorm:"index" json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	IsRecurring       bool      `gorm:"default:false" json:"isRecurring"`
	RecurringRule     *string   `gorm:"type:text" json:"recurringRule"`
	RecurringParentID *string   `gorm:"size:36;index" json:"recurringParentId"`

	// OutOfPattern marks a master whose own date does not match its rule.
	// The row stays for the children's sake but is not listed.
	OutOfPattern bool `gorm:"default:false" json:"-"`
}

// Sched exposes the embedded Schedule to generic code.
func (s *Schedule) Sched() *Schedule {
	return s
}

// Duration returns the length of the instance.
func (s *Schedule) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// IsMaster reports whether the row owns its series' rule.
func (s *Schedule) IsMaster() bool {
	return s.IsRecurring && s.RecurringParentID == nil
}

// RootID returns the id of the series master, which is either the parent
// reference or the row itself.
func (s *Schedule) RootID(self string) string {
	if s.RecurringParentID != nil {
		return *s.RecurringParentID
	}
	return self
}

// Rule returns the recurrence rule string, or "" when none is set.
func (s *Schedule) Rule() string {
	if s.RecurringRule == nil {
		return ""
	}
	return *s.RecurringRule
}

// Detach clears every recurrence column.
func (s *Schedule) Detach() {
	s.IsRecurring = false
	s.RecurringRule = nil
	s.RecurringParentID = nil
	s.OutOfPattern = false
}
