// Package scheduling materializes recurring appointments and availabilities
// and applies single / future / all edits and deletes to existing series.
//
// A series is stored as rows of the same table: one master that owns the
// recurrence rule and children that reference the master by id. Every public
// operation runs in a single database transaction.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"practice-scheduler-server/internal/models"
	"practice-scheduler-server/internal/recurrence"
)

// Entity is implemented by pointers to models embedding BaseModel and Schedule.
type Entity[T any] interface {
	*T
	Base() *models.BaseModel
	Sched() *models.Schedule
}

// CreateOptions carries request data consumed by create hooks.
type CreateOptions struct {
	// ServiceIDs overrides the clinician's default online-bookable services.
	ServiceIDs []string
	// SourceID names an existing instance whose services new rows inherit
	// when ServiceIDs is empty.
	SourceID string
}

// Hooks attach dependent rows to created instances and remove them before
// instances are deleted.
type Hooks[PT any] struct {
	AfterCreate  func(tx *gorm.DB, rows []PT, opts CreateOptions) error
	BeforeDelete func(tx *gorm.DB, ids []string) error
}

// Series manages recurring rows of one schedulable model.
type Series[T any, PT Entity[T]] struct {
	db     *gorm.DB
	logger *zap.Logger
	limits recurrence.Limits
	hooks  Hooks[PT]
}

// New creates a Series for the model T.
func New[T any, PT Entity[T]](db *gorm.DB, logger *zap.Logger, limits recurrence.Limits, hooks Hooks[PT]) *Series[T, PT] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Series[T, PT]{db: db, logger: logger, limits: limits, hooks: hooks}
}

// ListFilter narrows List results. Zero values are ignored.
type ListFilter struct {
	PracticeID  string
	ClinicianID string
	From        time.Time
	To          time.Time
}

// Get loads one instance by id.
func (s *Series[T, PT]) Get(ctx context.Context, id string) (PT, error) {
	return s.find(s.db.WithContext(ctx), id)
}

// List returns visible instances ordered by start time.
func (s *Series[T, PT]) List(ctx context.Context, f ListFilter) ([]PT, error) {
	q := s.db.WithContext(ctx).Where("out_of_pattern = ?", false)
	if f.PracticeID != "" {
		q = q.Where("practice_id = ?", f.PracticeID)
	}
	if f.ClinicianID != "" {
		q = q.Where("clinician_id = ?", f.ClinicianID)
	}
	if !f.From.IsZero() {
		q = q.Where("start_time >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("start_time < ?", f.To)
	}

	var rows []T
	if err := q.Order("start_time asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return pointers[T, PT](rows), nil
}

// Members returns the visible instances of the series id belongs to, master
// first when it is visible. A standalone instance is its own series.
func (s *Series[T, PT]) Members(ctx context.Context, id string) ([]PT, error) {
	tx := s.db.WithContext(ctx)
	target, err := s.find(tx, id)
	if err != nil {
		return nil, err
	}
	if !inSeries(target) {
		return []PT{target}, nil
	}

	root, members, err := s.series(tx, target)
	if err != nil {
		return nil, err
	}
	if root.Sched().OutOfPattern {
		members = members[1:]
	}
	return members, nil
}

func (s *Series[T, PT]) find(tx *gorm.DB, id string) (PT, error) {
	var row T
	if err := tx.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load schedule %s: %w", id, err)
	}
	return PT(&row), nil
}

// children returns the rows pointing at rootID, earliest first.
func (s *Series[T, PT]) children(tx *gorm.DB, rootID string) ([]PT, error) {
	var rows []T
	if err := tx.Where("recurring_parent_id = ?", rootID).Order("start_time asc").Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load children of %s: %w", rootID, err)
	}
	return pointers[T, PT](rows), nil
}

// series loads the master of target's series and returns it together with
// the full member list (master first, then children by start time). The
// member list reuses target's pointer so changes to it stay visible.
func (s *Series[T, PT]) series(tx *gorm.DB, target PT) (PT, []PT, error) {
	rootID := target.Sched().RootID(target.Base().ID)

	root := target
	if rootID != target.Base().ID {
		var err error
		if root, err = s.find(tx, rootID); err != nil {
			return nil, nil, err
		}
	}

	children, err := s.children(tx, rootID)
	if err != nil {
		return nil, nil, err
	}

	members := make([]PT, 0, len(children)+1)
	members = append(members, root)
	for _, c := range children {
		if c.Base().ID == target.Base().ID {
			c = target
		}
		members = append(members, c)
	}
	return root, members, nil
}

// promote makes the earliest survivor the master of the remaining rows,
// copying the rule of the departing master onto it.
func (s *Series[T, PT]) promote(tx *gorm.DB, departing PT, survivors []PT) error {
	if len(survivors) == 0 {
		return nil
	}

	rule := departing.Sched().Rule()
	next := survivors[0]
	sc := next.Sched()
	sc.IsRecurring = true
	sc.RecurringParentID = nil
	sc.RecurringRule = &rule
	sc.OutOfPattern = false
	if err := tx.Save(next).Error; err != nil {
		return fmt.Errorf("promote %s: %w", next.Base().ID, err)
	}

	if len(survivors) > 1 {
		newID := next.Base().ID
		rest := ids(survivors[1:])
		if err := tx.Model(new(T)).Where("id IN ?", rest).Update("recurring_parent_id", newID).Error; err != nil {
			return fmt.Errorf("re-point children to %s: %w", newID, err)
		}
		for _, c := range survivors[1:] {
			c.Sched().RecurringParentID = &newID
		}
	}

	s.logger.Debug("promoted series master",
		zap.String("from", departing.Base().ID),
		zap.String("to", next.Base().ID),
		zap.Int("children", len(survivors)-1),
	)
	return nil
}

// remove deletes rows and their dependents.
func (s *Series[T, PT]) remove(tx *gorm.DB, rowIDs []string) error {
	if len(rowIDs) == 0 {
		return nil
	}
	if s.hooks.BeforeDelete != nil {
		if err := s.hooks.BeforeDelete(tx, rowIDs); err != nil {
			return err
		}
	}
	if err := tx.Where("id IN ?", rowIDs).Delete(new(T)).Error; err != nil {
		return fmt.Errorf("delete schedules: %w", err)
	}
	return nil
}

func (s *Series[T, PT]) afterCreate(tx *gorm.DB, rows []PT, opts CreateOptions) error {
	if s.hooks.AfterCreate == nil || len(rows) == 0 {
		return nil
	}
	return s.hooks.AfterCreate(tx, rows, opts)
}

func inSeries[PT interface{ Sched() *models.Schedule }](row PT) bool {
	sc := row.Sched()
	return sc.IsRecurring || sc.RecurringParentID != nil
}

func pointers[T any, PT Entity[T]](rows []T) []PT {
	out := make([]PT, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out
}

func ids[PT interface{ Base() *models.BaseModel }](rows []PT) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Base().ID
	}
	return out
}

func validRange(sc *models.Schedule) error {
	if !sc.EndTime.After(sc.StartTime) {
		return ErrInvalidRange
	}
	return nil
}
