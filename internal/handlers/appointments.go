package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"practice-scheduler-server/internal/middleware"
	"practice-scheduler-server/internal/models"
	"practice-scheduler-server/internal/scheduling"
	"practice-scheduler-server/internal/utils"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	Series *scheduling.AppointmentSeries
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(series *scheduling.AppointmentSeries) *AppointmentHandler {
	return &AppointmentHandler{Series: series}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	ClinicianID   string    `json:"clinicianId" binding:"required"`
	ClientGroupID string    `json:"clientGroupId" binding:"required"`
	LocationID    string    `json:"locationId"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"startTime" binding:"required"`
	EndTime       time.Time `json:"endTime" binding:"required" validate:"gtfield=StartTime"`
	RecurringRule string    `json:"recurringRule"` // e.g. FREQ=WEEKLY;BYDAY=MO,WE;COUNT=6
	Notes         string    `json:"notes"`
	ServiceIDs    []string  `json:"serviceIds"`
}

// CreateAppointment handles creating an appointment or a recurring series of them.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	practiceID, ok := middleware.GetPracticeIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Practice not found in token")
		return
	}

	appointment := &models.Appointment{
		ClientGroupID: req.ClientGroupID,
		Status:        models.StatusScheduled,
		Notes:         req.Notes,
	}
	appointment.PracticeID = practiceID
	appointment.ClinicianID = req.ClinicianID
	appointment.LocationID = req.LocationID
	appointment.Title = req.Title
	appointment.StartTime = req.StartTime
	appointment.EndTime = req.EndTime
	if req.RecurringRule != "" {
		appointment.RecurringRule = &req.RecurringRule
	}

	rows, err := h.Series.Create(c.Request.Context(), appointment, scheduling.CreateOptions{ServiceIDs: req.ServiceIDs})
	if err != nil {
		respondError(c, err, "create appointment")
		return
	}

	respondSchedules(c, true, "Appointment created successfully", rows)
}

// GetAppointments lists the practice's appointments in a time range.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	listSchedules(c, h.Series, "Appointments")
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	getSchedule(c, h.Series, "Appointment")
}

// GetAppointmentSeries returns every visible instance of the appointment's series.
func (h *AppointmentHandler) GetAppointmentSeries(c *gin.Context) {
	getSeries(c, h.Series, "Appointment")
}

// UpdateAppointmentRequest represents the request body for updating an appointment.
// Omitted fields are left unchanged.
type UpdateAppointmentRequest struct {
	ClinicianID   *string                   `json:"clinicianId"`
	LocationID    *string                   `json:"locationId"`
	Title         *string                   `json:"title"`
	StartTime     *time.Time                `json:"startTime"`
	EndTime       *time.Time                `json:"endTime"`
	RecurringRule *string                   `json:"recurringRule"`
	Status        *models.AppointmentStatus `json:"status" binding:"omitempty,oneof=scheduled confirmed cancelled completed no_show"`
	Notes         *string                   `json:"notes"`
}

// UpdateAppointment applies an edit to one appointment, the rest of its
// series from it onwards, or the whole series (?editOption=single|future|all).
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := scheduling.Patch[*models.Appointment]{
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		RecurringRule: req.RecurringRule,
		Apply: func(a *models.Appointment) {
			if req.ClinicianID != nil {
				a.ClinicianID = *req.ClinicianID
			}
			if req.LocationID != nil {
				a.LocationID = *req.LocationID
			}
			if req.Title != nil {
				a.Title = *req.Title
			}
			if req.Status != nil {
				a.Status = *req.Status
			}
			if req.Notes != nil {
				a.Notes = *req.Notes
			}
		},
	}
	updateSchedule(c, h.Series, "Appointment", patch)
}

// DeleteAppointment removes one appointment, the rest of its series from it
// onwards, or the whole series (?deleteOption=single|future|all).
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	deleteSchedule(c, h.Series, "Appointment")
}
