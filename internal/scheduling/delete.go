package scheduling

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Delete removes the instance id and, depending on scope, other instances of
// its series together with their tags and services. It returns the ids of the
// deleted rows.
func (s *Series[T, PT]) Delete(ctx context.Context, id string, scope Scope) ([]string, error) {
	var removed []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.find(tx, id)
		if err != nil {
			return err
		}

		if !inSeries(target) {
			removed = []string{id}
			return s.remove(tx, removed)
		}
		switch scope {
		case ScopeSingle:
			removed, err = s.deleteSingle(tx, target)
		case ScopeFuture:
			removed, err = s.deleteFuture(tx, target)
		case ScopeAll:
			removed, err = s.deleteAll(tx, target)
		default:
			err = fmt.Errorf("%w: %q", ErrInvalidScope, scope)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("deleted schedule",
		zap.String("id", id),
		zap.String("scope", string(scope)),
		zap.Int("instances", len(removed)),
	)
	return removed, nil
}

func (s *Series[T, PT]) deleteSingle(tx *gorm.DB, target PT) ([]string, error) {
	removed := []string{target.Base().ID}
	sc := target.Sched()
	if sc.IsMaster() {
		children, err := s.children(tx, target.Base().ID)
		if err != nil {
			return nil, err
		}
		if err := s.promote(tx, target, children); err != nil {
			return nil, err
		}
		return removed, s.remove(tx, removed)
	}

	root, last, err := s.lastOfHidden(tx, target)
	if err != nil {
		return nil, err
	}
	if last {
		removed = append(removed, root)
	}
	return removed, s.remove(tx, removed)
}

// lastOfHidden reports whether the child target is the only instance left
// under an out-of-pattern master, and returns that master's id. A missing
// master is not an error.
func (s *Series[T, PT]) lastOfHidden(tx *gorm.DB, target PT) (string, bool, error) {
	sc := target.Sched()
	root, err := s.find(tx, sc.RootID(target.Base().ID))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !root.Sched().OutOfPattern {
		return "", false, nil
	}

	var n int64
	if err := tx.Model(new(T)).Where("recurring_parent_id = ? AND id <> ?", root.Base().ID, target.Base().ID).Count(&n).Error; err != nil {
		return "", false, fmt.Errorf("count siblings: %w", err)
	}
	return root.Base().ID, n == 0, nil
}

// deleteFuture removes the target and every later instance. Deleting from the
// master hands the earlier children, if any, to a promoted master.
func (s *Series[T, PT]) deleteFuture(tx *gorm.DB, target PT) ([]string, error) {
	root, members, err := s.series(tx, target)
	if err != nil {
		return nil, err
	}

	targetID, rootID := target.Base().ID, root.Base().ID
	cutover := target.Sched().StartTime

	var removed []string
	var survivors []PT
	for _, m := range members {
		id := m.Base().ID
		switch {
		case id == targetID:
			removed = append(removed, id)
		case id == rootID:
			// master before a child cutover stays
		case !m.Sched().StartTime.Before(cutover):
			removed = append(removed, id)
		default:
			survivors = append(survivors, m)
		}
	}

	switch {
	case targetID == rootID:
		if err := s.promote(tx, root, survivors); err != nil {
			return nil, err
		}
	case root.Sched().OutOfPattern && len(survivors) == 0:
		// a hidden master with nothing left to anchor
		removed = append(removed, rootID)
	}
	return removed, s.remove(tx, removed)
}

func (s *Series[T, PT]) deleteAll(tx *gorm.DB, target PT) ([]string, error) {
	_, members, err := s.series(tx, target)
	if err != nil {
		return nil, err
	}
	removed := ids(members)
	return removed, s.remove(tx, removed)
}
