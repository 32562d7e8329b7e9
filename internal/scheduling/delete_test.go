package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practice-scheduler-server/internal/models"
)

func TestDelete_SingleChild(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	rows := fiveMondays(t, s)

	removed, err := s.Delete(context.Background(), rows[2].ID, ScopeSingle)
	require.NoError(t, err)
	assert.Equal(t, []string{rows[2].ID}, removed)

	assert.EqualValues(t, 4, count(t, db, &models.Appointment{}, ""))
	assert.EqualValues(t, 0, count(t, db, &models.AppointmentTag{}, "appointment_id = ?", rows[2].ID))
}

func TestDelete_SingleMasterPromotesEarliestChild(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	rows := fiveMondays(t, s)

	_, err := s.Delete(context.Background(), rows[0].ID, ScopeSingle)
	require.NoError(t, err)

	promoted := reload(t, s, rows[1].ID)
	assert.True(t, promoted.IsMaster())
	assert.Equal(t, "FREQ=WEEKLY;COUNT=5", promoted.Rule())

	members, err := s.Members(context.Background(), rows[4].ID)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(8, 10, 0), day(15, 10, 0), day(22, 10, 0), day(29, 10, 0)}, startTimes(members))
	assert.EqualValues(t, 1, count(t, db, &models.Appointment{}, "recurring_parent_id IS NULL"))
}

func TestDelete_FutureFromChild(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	rows := fiveMondays(t, s)

	removed, err := s.Delete(context.Background(), rows[2].ID, ScopeFuture)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{rows[2].ID, rows[3].ID, rows[4].ID}, removed)

	members, err := s.Members(context.Background(), rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(1, 10, 0), day(8, 10, 0)}, startTimes(members))
	assert.True(t, members[0].IsMaster())
	require.NotNil(t, members[1].RecurringParentID)
	assert.Equal(t, rows[0].ID, *members[1].RecurringParentID)
	assert.EqualValues(t, 2, count(t, db, &models.Appointment{}, ""))
}

func TestDelete_FutureFromMaster(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	rows := fiveMondays(t, s)

	// split the original master off so rows[1] becomes the master
	_, err := s.Edit(context.Background(), rows[0].ID, ScopeSingle, Patch[*models.Appointment]{})
	require.NoError(t, err)
	_, err = s.Delete(context.Background(), rows[0].ID, ScopeSingle)
	require.NoError(t, err)

	removed, err := s.Delete(context.Background(), rows[1].ID, ScopeFuture)
	require.NoError(t, err)
	assert.Len(t, removed, 4)
	assert.EqualValues(t, 0, count(t, db, &models.Appointment{}, ""))
	assert.EqualValues(t, 0, count(t, db, &models.AppointmentTag{}, ""))
}

func TestDelete_FutureFromMasterKeepsEarlierChildren(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	rows := fiveMondays(t, s)
	dec := func(d int) time.Time { return time.Date(2023, 12, d, 9, 0, 0, 0, time.UTC) }

	// the last three instances move ahead of the master, to Monday 9:00 from 12/18
	_, err := s.Edit(context.Background(), rows[2].ID, ScopeFuture, Patch[*models.Appointment]{
		StartTime: ptr(dec(18)),
		EndTime:   ptr(dec(18).Add(time.Hour)),
	})
	require.NoError(t, err)

	removed, err := s.Delete(context.Background(), rows[0].ID, ScopeFuture)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{rows[0].ID, rows[1].ID}, removed)

	promoted := reload(t, s, rows[2].ID)
	assert.True(t, promoted.IsMaster())
	assert.Equal(t, "FREQ=WEEKLY;COUNT=5", promoted.Rule())
	assert.EqualValues(t, 2, count(t, db, &models.Appointment{}, "recurring_parent_id = ?", promoted.ID))

	members, err := s.Members(context.Background(), rows[4].ID)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{dec(18), dec(25), day(1, 9, 0)}, startTimes(members))
	assert.EqualValues(t, 3, count(t, db, &models.Appointment{}, ""))
}

func TestDelete_All(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	rows := fiveMondays(t, s)
	other := createSeries(t, s, appointment(day(2, 9, 0), time.Hour, ""))

	removed, err := s.Delete(context.Background(), rows[3].ID, ScopeAll)
	require.NoError(t, err)
	assert.Len(t, removed, 5)

	assert.EqualValues(t, 1, count(t, db, &models.Appointment{}, ""))
	assert.EqualValues(t, 2, count(t, db, &models.AppointmentTag{}, ""))
	assert.EqualValues(t, 2, count(t, db, &models.AppointmentTag{}, "appointment_id = ?", other[0].ID))
}

func TestDelete_HiddenMasterGoesWithSeries(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	rows := createSeries(t, s, appointment(day(2, 14, 0), time.Hour, "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=2"))
	require.Len(t, rows, 2)

	_, err := s.Delete(context.Background(), rows[1].ID, ScopeSingle)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count(t, db, &models.Appointment{}, ""))

	removed, err := s.Delete(context.Background(), rows[0].ID, ScopeSingle)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.EqualValues(t, 0, count(t, db, &models.Appointment{}, ""))
}

func TestDelete_HiddenMasterGoesWithLastChild(t *testing.T) {
	s, db, _ := newTestAppointments(t)
	// Tuesday origin with a Monday-only rule
	rows := createSeries(t, s, appointment(day(2, 14, 0), time.Hour, "FREQ=WEEKLY;BYDAY=MO;COUNT=1"))
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, count(t, db, &models.Appointment{}, ""))

	removed, err := s.Delete(context.Background(), rows[0].ID, ScopeSingle)
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.EqualValues(t, 0, count(t, db, &models.Appointment{}, ""))
	assert.EqualValues(t, 0, count(t, db, &models.AppointmentTag{}, ""))
}

func TestDelete_Errors(t *testing.T) {
	s, _, _ := newTestAppointments(t)
	rows := fiveMondays(t, s)

	_, err := s.Delete(context.Background(), "missing", ScopeAll)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Delete(context.Background(), rows[1].ID, Scope("everything"))
	assert.ErrorIs(t, err, ErrInvalidScope)
}
