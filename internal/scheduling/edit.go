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

// Patch describes an edit. Nil fields are left unchanged, as is an empty
// RecurringRule.
type Patch[PT any] struct {
	StartTime     *time.Time
	EndTime       *time.Time
	RecurringRule *string

	// Apply copies non-timing fields onto a row. It is called for every row
	// in the edit's scope and must not touch timing or recurrence columns.
	Apply func(PT)
}

func (p Patch[PT]) apply(row PT) {
	if p.Apply != nil {
		p.Apply(row)
	}
}

// timing returns the start and end an instance has after the patch.
func (p Patch[PT]) timing(start, end time.Time) (time.Time, time.Time) {
	if p.StartTime != nil {
		start = *p.StartTime
	}
	if p.EndTime != nil {
		end = *p.EndTime
	}
	return start, end
}

// rule returns the new rule when the patch changes current.
func (p Patch[PT]) rule(current string) (string, bool) {
	if p.RecurringRule == nil {
		return "", false
	}
	next := strings.TrimSpace(*p.RecurringRule)
	if next == "" || (current != "" && recurrence.Equal(next, current)) {
		return "", false
	}
	return next, true
}

// Edit applies patch to the instance id and, depending on scope, to the rest
// of its series. It returns the visible rows written, earliest first.
func (s *Series[T, PT]) Edit(ctx context.Context, id string, scope Scope, patch Patch[PT]) ([]PT, error) {
	var out []PT
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.find(tx, id)
		if err != nil {
			return err
		}

		if !inSeries(target) {
			out, err = s.editStandalone(tx, target, patch)
			return err
		}
		switch scope {
		case ScopeSingle:
			out, err = s.editSingle(tx, target, patch)
		case ScopeFuture:
			out, err = s.editFuture(tx, target, patch)
		case ScopeAll:
			out, err = s.editAll(tx, target, patch)
		default:
			err = fmt.Errorf("%w: %q", ErrInvalidScope, scope)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("edited schedule",
		zap.String("id", id),
		zap.String("scope", string(scope)),
		zap.Int("instances", len(out)),
	)
	return out, nil
}

// editStandalone updates a row that is not part of a series. A new rule turns
// it into the master of one.
func (s *Series[T, PT]) editStandalone(tx *gorm.DB, target PT, patch Patch[PT]) ([]PT, error) {
	sc := target.Sched()
	patch.apply(target)
	sc.StartTime, sc.EndTime = patch.timing(sc.StartTime, sc.EndTime)
	if err := validRange(sc); err != nil {
		return nil, err
	}

	rule, changed := patch.rule("")
	if !changed {
		if err := tx.Save(target).Error; err != nil {
			return nil, fmt.Errorf("save %s: %w", target.Base().ID, err)
		}
		return []PT{target}, nil
	}

	sc.RecurringRule = &rule
	occurrences := s.plan(target)
	if err := tx.Save(target).Error; err != nil {
		return nil, fmt.Errorf("save %s: %w", target.Base().ID, err)
	}
	created, err := s.createChildren(tx, target, occurrences, false)
	if err != nil {
		return nil, err
	}
	if err := s.afterCreate(tx, created, CreateOptions{SourceID: target.Base().ID}); err != nil {
		return nil, err
	}
	return visible(append([]PT{target}, created...)), nil
}

// editSingle splits the target out of its series before changing it.
func (s *Series[T, PT]) editSingle(tx *gorm.DB, target PT, patch Patch[PT]) ([]PT, error) {
	sc := target.Sched()
	if sc.IsMaster() {
		children, err := s.children(tx, target.Base().ID)
		if err != nil {
			return nil, err
		}
		if err := s.promote(tx, target, children); err != nil {
			return nil, err
		}
	} else {
		// a hidden master loses its series with its last child
		root, last, err := s.lastOfHidden(tx, target)
		if err != nil {
			return nil, err
		}
		if last {
			if err := s.remove(tx, []string{root}); err != nil {
				return nil, err
			}
		}
	}

	sc.Detach()
	patch.apply(target)
	sc.StartTime, sc.EndTime = patch.timing(sc.StartTime, sc.EndTime)
	if err := validRange(sc); err != nil {
		return nil, err
	}
	if err := tx.Save(target).Error; err != nil {
		return nil, fmt.Errorf("save %s: %w", target.Base().ID, err)
	}
	return []PT{target}, nil
}

// editFuture changes the target and every later instance of its series.
// Instances before the target, including a master that precedes it, keep
// their timing and rule.
func (s *Series[T, PT]) editFuture(tx *gorm.DB, target PT, patch Patch[PT]) ([]PT, error) {
	root, members, err := s.series(tx, target)
	if err != nil {
		return nil, err
	}

	targetID, rootID := target.Base().ID, root.Base().ID
	cutover := target.Sched().StartTime

	var rows []PT
	kept := 0
	for _, m := range members {
		id := m.Base().ID
		switch {
		case id == targetID:
			rows = append(rows, m)
		case id != rootID && !m.Sched().StartTime.Before(cutover):
			rows = append(rows, m)
		case !m.Sched().OutOfPattern:
			kept++
		}
	}
	rows = orderFrom(rows, targetID)

	start, end := patch.timing(target.Sched().StartTime, target.Sched().EndTime)
	return s.rewrite(tx, root, rows, patch, start, end, kept, len(rows) == len(members))
}

// editAll changes every instance of the target's series. The target's move is
// applied to the master as well, which seeds the regenerated series when the
// rule changes.
func (s *Series[T, PT]) editAll(tx *gorm.DB, target PT, patch Patch[PT]) ([]PT, error) {
	root, members, err := s.series(tx, target)
	if err != nil {
		return nil, err
	}

	tsc := target.Sched()
	newStart, newEnd := patch.timing(tsc.StartTime, tsc.EndTime)
	sh := shiftBetween(tsc.StartTime, tsc.EndTime, newStart, newEnd)

	rsc := root.Sched()
	seed := *rsc
	sh.apply(&seed)
	return s.rewrite(tx, root, members, patch, seed.StartTime, seed.EndTime, 0, true)
}

// rewrite applies patch to rows, whose first element is the seed instance.
// A changed rule regenerates the rows from the seed's new timing with the
// COUNT budget reduced by kept; otherwise every row is moved the way the seed
// moved. When rows is the whole series, a move to other weekdays carries the
// rule's BYDAY along with it.
func (s *Series[T, PT]) rewrite(tx *gorm.DB, root PT, rows []PT, patch Patch[PT], start, end time.Time, kept int, whole bool) ([]PT, error) {
	seed := rows[0].Sched()
	for _, row := range rows {
		patch.apply(row)
	}

	if rule, changed := patch.rule(seed.Rule()); changed {
		return s.regenerate(tx, root, rows, start, end, rule, kept)
	}

	sh := shiftBetween(seed.StartTime, seed.EndTime, start, end)
	var ruleText *string
	if whole && sh.days%7 != 0 {
		if rule := recurrence.Parse(seed.Rule()); rule.HasDays() {
			shifted := rule.ShiftDays(sh.days).String()
			ruleText = &shifted
		}
	}

	for _, row := range rows {
		sc := row.Sched()
		if !sh.zero() {
			sh.apply(sc)
		}
		if ruleText != nil {
			sc.RecurringRule = ruleText
		}
		if err := validRange(sc); err != nil {
			return nil, err
		}
		if err := tx.Save(row).Error; err != nil {
			return nil, fmt.Errorf("save %s: %w", row.Base().ID, err)
		}
	}
	return visible(rows), nil
}

// regenerate lays a new rule over rows. Existing rows take the new
// occurrences in order, surplus rows are deleted and missing ones created.
func (s *Series[T, PT]) regenerate(tx *gorm.DB, root PT, rows []PT, start, end time.Time, ruleText string, kept int) ([]PT, error) {
	if !end.After(start) {
		return nil, ErrInvalidRange
	}

	rule := recurrence.Parse(ruleText)
	if rule.Count > 0 {
		rule.Count -= kept
		if rule.Count < 1 {
			rule.Count = 1
		}
	}

	seedIsRoot := rows[0].Base().ID == root.Base().ID
	outOfPattern := seedIsRoot && !rule.Matches(start)
	if outOfPattern && rule.Count > 0 {
		rule.Count++
	}

	occurrences := recurrence.Expand(start, end, rule, s.limits)
	n := min(len(occurrences), len(rows))
	for i := 0; i < n; i++ {
		sc := rows[i].Sched()
		sc.StartTime, sc.EndTime = occurrences[i].Start, occurrences[i].End
		sc.IsRecurring = true
		sc.RecurringRule = &ruleText
		sc.OutOfPattern = i == 0 && outOfPattern
		if err := tx.Save(rows[i]).Error; err != nil {
			return nil, fmt.Errorf("save %s: %w", rows[i].Base().ID, err)
		}
	}

	if err := s.remove(tx, ids(rows[n:])); err != nil {
		return nil, err
	}

	created, err := s.createChildren(tx, rows[0], occurrences[n:], false)
	if err != nil {
		return nil, err
	}
	if err := s.afterCreate(tx, created, CreateOptions{SourceID: rows[0].Base().ID}); err != nil {
		return nil, err
	}

	s.logger.Debug("regenerated series",
		zap.String("root", root.Base().ID),
		zap.String("rule", ruleText),
		zap.Int("updated", n),
		zap.Int("deleted", len(rows)-n),
		zap.Int("created", len(created)),
	)
	return visible(append(rows[:n:n], created...)), nil
}

// orderFrom moves the row with id to the front and keeps the others in order.
func orderFrom[PT interface{ Base() *models.BaseModel }](rows []PT, id string) []PT {
	out := make([]PT, 0, len(rows))
	for _, r := range rows {
		if r.Base().ID == id {
			out = append(out, r)
		}
	}
	for _, r := range rows {
		if r.Base().ID != id {
			out = append(out, r)
		}
	}
	return out
}

func visible[PT interface{ Sched() *models.Schedule }](rows []PT) []PT {
	out := make([]PT, 0, len(rows))
	for _, r := range rows {
		if !r.Sched().OutOfPattern {
			out = append(out, r)
		}
	}
	return out
}
