package scheduling

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"practice-scheduler-server/internal/models"
	"practice-scheduler-server/internal/recurrence"
)

const (
	testPractice  = "practice-1"
	testClinician = "clinician-1"
	testGroup     = "group-1"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(models.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.Migrate(db))
	return db
}

func newTestAppointments(t *testing.T) (*AppointmentSeries, *gorm.DB, *observer.ObservedLogs) {
	t.Helper()
	db := newTestDB(t)
	core, logs := observer.New(zapcore.DebugLevel)
	return NewAppointmentSeries(db, zap.New(core), recurrence.DefaultLimits), db, logs
}

func appointment(start time.Time, length time.Duration, rule string) *models.Appointment {
	a := &models.Appointment{ClientGroupID: testGroup, Status: models.StatusScheduled}
	a.PracticeID = testPractice
	a.ClinicianID = testClinician
	a.Title = "Session"
	a.StartTime = start
	a.EndTime = start.Add(length)
	if rule != "" {
		a.RecurringRule = &rule
	}
	return a
}

func day(d, hour, minute int) time.Time {
	return time.Date(2024, 1, d, hour, minute, 0, 0, time.UTC)
}

// createSeries persists a series and returns its visible rows.
func createSeries(t *testing.T, s *AppointmentSeries, origin *models.Appointment) []*models.Appointment {
	t.Helper()
	rows, err := s.Create(context.Background(), origin, CreateOptions{})
	require.NoError(t, err)
	return rows
}

func allAppointments(t *testing.T, db *gorm.DB) []models.Appointment {
	t.Helper()
	var rows []models.Appointment
	require.NoError(t, db.Order("start_time asc").Find(&rows).Error)
	return rows
}

func startTimes[PT interface{ Sched() *models.Schedule }](rows []PT) []time.Time {
	out := make([]time.Time, len(rows))
	for i, r := range rows {
		out[i] = r.Sched().StartTime.UTC()
	}
	return out
}

func count(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func ptr[V any](v V) *V {
	return &v
}
