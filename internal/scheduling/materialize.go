package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"practice-scheduler-server/internal/models"
	"practice-scheduler-server/internal/recurrence"
)

// Create persists origin and, when it carries a recurrence rule, every
// generated child. It returns the visible rows: a master whose own date falls
// outside its weekday pattern is stored but left out of the result.
//
// A child that fails to insert is logged and skipped, so callers must look at
// the number of returned rows rather than assume the rule was fully honored.
func (s *Series[T, PT]) Create(ctx context.Context, origin PT, opts CreateOptions) ([]PT, error) {
	if err := validRange(origin.Sched()); err != nil {
		return nil, err
	}

	var visible []PT
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.materialize(tx, origin)
		if err != nil {
			return err
		}
		if err := s.afterCreate(tx, created, opts); err != nil {
			return err
		}

		for _, row := range created {
			if !row.Sched().OutOfPattern {
				visible = append(visible, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("created schedule",
		zap.String("id", origin.Base().ID),
		zap.String("rule", origin.Sched().Rule()),
		zap.Int("instances", len(visible)),
	)
	return visible, nil
}

func (s *Series[T, PT]) materialize(tx *gorm.DB, master PT) ([]PT, error) {
	sc := master.Sched()
	rule := strings.TrimSpace(sc.Rule())
	if rule == "" {
		sc.Detach()
		if err := tx.Create(master).Error; err != nil {
			return nil, fmt.Errorf("create schedule: %w", err)
		}
		return []PT{master}, nil
	}
	sc.RecurringRule = &rule

	occurrences := s.plan(master)
	if err := tx.Create(master).Error; err != nil {
		return nil, fmt.Errorf("create series master: %w", err)
	}

	children, err := s.createChildren(tx, master, occurrences, true)
	if err != nil {
		return nil, err
	}
	return append([]PT{master}, children...), nil
}

// plan marks master as the owner of its rule and returns the occurrences that
// follow it.
func (s *Series[T, PT]) plan(master PT) []recurrence.Occurrence {
	sc := master.Sched()
	occurrences, outOfPattern := Plan(sc.StartTime, sc.EndTime, sc.Rule(), s.limits)

	sc.IsRecurring = true
	sc.RecurringParentID = nil
	sc.OutOfPattern = outOfPattern
	return occurrences[1:]
}

// Plan expands ruleText from [start, end) the way Create lays out a series.
// When start's weekday is outside the rule's pattern the origin is reported
// out of pattern and one more occurrence is generated, so the visible series
// still has COUNT instances. The origin is always the first occurrence.
func Plan(start, end time.Time, ruleText string, limits recurrence.Limits) ([]recurrence.Occurrence, bool) {
	rule := recurrence.Parse(ruleText)
	outOfPattern := !rule.Matches(start)
	if outOfPattern && rule.Count > 0 {
		rule.Count++
	}
	return recurrence.Expand(start, end, rule, limits), outOfPattern
}

// createChildren inserts one row per occurrence under master. With partial
// set, a failed insert is rolled back to its savepoint and skipped; otherwise
// the first failure is returned.
func (s *Series[T, PT]) createChildren(tx *gorm.DB, master PT, occurrences []recurrence.Occurrence, partial bool) ([]PT, error) {
	parentID := master.Sched().RootID(master.Base().ID)
	rule := master.Sched().Rule()

	created := make([]PT, 0, len(occurrences))
	for i, occ := range occurrences {
		child := clone[T, PT](master)
		sc := child.Sched()
		sc.StartTime, sc.EndTime = occ.Start, occ.End
		sc.IsRecurring = true
		sc.RecurringParentID = &parentID
		sc.RecurringRule = &rule
		sc.OutOfPattern = false

		if !partial {
			if err := tx.Create(child).Error; err != nil {
				return nil, fmt.Errorf("create occurrence %s: %w", occ.Start, err)
			}
			created = append(created, child)
			continue
		}

		savepoint := fmt.Sprintf("occurrence_%d", i)
		if err := tx.SavePoint(savepoint).Error; err != nil {
			return nil, fmt.Errorf("savepoint: %w", err)
		}
		if err := tx.Create(child).Error; err != nil {
			if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
				return nil, fmt.Errorf("rollback occurrence %s: %w", occ.Start, rbErr)
			}
			s.logger.Warn("skipping occurrence",
				zap.String("master", parentID),
				zap.Time("start", occ.Start),
				zap.Error(err),
			)
			continue
		}
		created = append(created, child)
	}
	return created, nil
}

// clone copies every column of src into a new unsaved row.
func clone[T any, PT Entity[T]](src PT) PT {
	row := *src
	dst := PT(&row)
	*dst.Base() = models.BaseModel{}
	return dst
}
