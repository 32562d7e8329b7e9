package scheduling

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"practice-scheduler-server/internal/models"
	"practice-scheduler-server/internal/recurrence"
)

type (
	AppointmentSeries  = Series[models.Appointment, *models.Appointment]
	AvailabilitySeries = Series[models.Availability, *models.Availability]
)

// NewAppointmentSeries wires appointment tagging and service hooks.
func NewAppointmentSeries(db *gorm.DB, logger *zap.Logger, limits recurrence.Limits) *AppointmentSeries {
	return New[models.Appointment](db, logger, limits, AppointmentHooks())
}

// NewAvailabilitySeries wires availability service hooks.
func NewAvailabilitySeries(db *gorm.DB, logger *zap.Logger, limits recurrence.Limits) *AvailabilitySeries {
	return New[models.Availability](db, logger, limits, AvailabilityHooks())
}

// AppointmentHooks tags every new appointment Unpaid and No Note, marks the
// first appointment of a client group New Client, and links services.
func AppointmentHooks() Hooks[*models.Appointment] {
	return Hooks[*models.Appointment]{
		AfterCreate: func(tx *gorm.DB, rows []*models.Appointment, opts CreateOptions) error {
			if err := tagAppointments(tx, rows); err != nil {
				return err
			}
			serviceIDs, err := resolveServices(tx, rows[0].ClinicianID, opts, &models.AppointmentService{}, "appointment_id")
			if err != nil {
				return err
			}
			links := make([]models.AppointmentService, 0, len(rows)*len(serviceIDs))
			for _, row := range rows {
				for _, sid := range serviceIDs {
					links = append(links, models.AppointmentService{AppointmentID: row.ID, ServiceID: sid})
				}
			}
			return createAll(tx, links)
		},
		BeforeDelete: func(tx *gorm.DB, ids []string) error {
			if err := tx.Where("appointment_id IN ?", ids).Delete(&models.AppointmentTag{}).Error; err != nil {
				return fmt.Errorf("delete appointment tags: %w", err)
			}
			if err := tx.Where("appointment_id IN ?", ids).Delete(&models.AppointmentService{}).Error; err != nil {
				return fmt.Errorf("delete appointment services: %w", err)
			}
			return nil
		},
	}
}

// AvailabilityHooks links services to new availabilities.
func AvailabilityHooks() Hooks[*models.Availability] {
	return Hooks[*models.Availability]{
		AfterCreate: func(tx *gorm.DB, rows []*models.Availability, opts CreateOptions) error {
			serviceIDs, err := resolveServices(tx, rows[0].ClinicianID, opts, &models.AvailabilityService{}, "availability_id")
			if err != nil {
				return err
			}
			links := make([]models.AvailabilityService, 0, len(rows)*len(serviceIDs))
			for _, row := range rows {
				for _, sid := range serviceIDs {
					links = append(links, models.AvailabilityService{AvailabilityID: row.ID, ServiceID: sid})
				}
			}
			return createAll(tx, links)
		},
		BeforeDelete: func(tx *gorm.DB, ids []string) error {
			if err := tx.Where("availability_id IN ?", ids).Delete(&models.AvailabilityService{}).Error; err != nil {
				return fmt.Errorf("delete availability services: %w", err)
			}
			return nil
		},
	}
}

func tagAppointments(tx *gorm.DB, rows []*models.Appointment) error {
	practiceID := rows[0].PracticeID
	unpaid, err := tagNamed(tx, practiceID, models.TagUnpaid)
	if err != nil {
		return err
	}
	noNote, err := tagNamed(tx, practiceID, models.TagNoNote)
	if err != nil {
		return err
	}

	links := make([]models.AppointmentTag, 0, len(rows)*2+1)
	for _, row := range rows {
		links = append(links,
			models.AppointmentTag{AppointmentID: row.ID, TagID: unpaid.ID},
			models.AppointmentTag{AppointmentID: row.ID, TagID: noNote.ID},
		)
	}

	first := firstVisible(rows)
	if first != nil && first.ClientGroupID != "" {
		var existing int64
		err := tx.Model(&models.Appointment{}).
			Where("client_group_id = ? AND id NOT IN ?", first.ClientGroupID, ids(rows)).
			Count(&existing).Error
		if err != nil {
			return fmt.Errorf("count client appointments: %w", err)
		}
		if existing == 0 {
			newClient, err := tagNamed(tx, practiceID, models.TagNewClient)
			if err != nil {
				return err
			}
			links = append(links, models.AppointmentTag{AppointmentID: first.ID, TagID: newClient.ID})
		}
	}
	return createAll(tx, links)
}

func tagNamed(tx *gorm.DB, practiceID, name string) (*models.Tag, error) {
	tag := &models.Tag{}
	err := tx.Where(map[string]any{"practice_id": practiceID, "name": name}).FirstOrCreate(tag).Error
	if err != nil {
		return nil, fmt.Errorf("tag %q: %w", name, err)
	}
	return tag, nil
}

// resolveServices picks the services for new rows: the explicit list, then
// the services of the source instance, then the clinician's active
// online-bookable catalog.
func resolveServices(tx *gorm.DB, clinicianID string, opts CreateOptions, link any, ownerColumn string) ([]string, error) {
	if len(opts.ServiceIDs) > 0 {
		return opts.ServiceIDs, nil
	}

	var serviceIDs []string
	if opts.SourceID != "" {
		err := tx.Model(link).Where(ownerColumn+" = ?", opts.SourceID).Pluck("service_id", &serviceIDs).Error
		if err != nil {
			return nil, fmt.Errorf("load source services: %w", err)
		}
		if len(serviceIDs) > 0 {
			return serviceIDs, nil
		}
	}

	err := tx.Model(&models.ClinicianService{}).
		Where("clinician_id = ? AND is_active = ? AND is_online_bookable = ?", clinicianID, true, true).
		Pluck("service_id", &serviceIDs).Error
	if err != nil {
		return nil, fmt.Errorf("load clinician services: %w", err)
	}
	return serviceIDs, nil
}

func firstVisible(rows []*models.Appointment) *models.Appointment {
	for _, r := range rows {
		if !r.OutOfPattern {
			return r
		}
	}
	return nil
}

func createAll[M any](tx *gorm.DB, rows []M) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(&rows, 200).Error; err != nil {
		return fmt.Errorf("create links: %w", err)
	}
	return nil
}
