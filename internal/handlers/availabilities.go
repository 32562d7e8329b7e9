package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"practice-scheduler-server/internal/middleware"
	"practice-scheduler-server/internal/models"
	"practice-scheduler-server/internal/scheduling"
	"practice-scheduler-server/internal/utils"
)

// AvailabilityHandler handles clinician availability requests.
type AvailabilityHandler struct {
	Series *scheduling.AvailabilitySeries
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(series *scheduling.AvailabilitySeries) *AvailabilityHandler {
	return &AvailabilityHandler{Series: series}
}

// CreateAvailabilityRequest represents the request body for opening clinician time.
type CreateAvailabilityRequest struct {
	ClinicianID      string    `json:"clinicianId" binding:"required"`
	LocationID       string    `json:"locationId"`
	Title            string    `json:"title"`
	StartTime        time.Time `json:"startTime" binding:"required"`
	EndTime          time.Time `json:"endTime" binding:"required" validate:"gtfield=StartTime"`
	RecurringRule    string    `json:"recurringRule"`
	IsOnlineBookable bool      `json:"isOnlineBookable"`
	ServiceIDs       []string  `json:"serviceIds"`
}

// CreateAvailability handles creating an availability block or a recurring series of them.
func (h *AvailabilityHandler) CreateAvailability(c *gin.Context) {
	var req CreateAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	practiceID, ok := middleware.GetPracticeIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Practice not found in token")
		return
	}

	availability := &models.Availability{IsOnlineBookable: req.IsOnlineBookable}
	availability.PracticeID = practiceID
	availability.ClinicianID = req.ClinicianID
	availability.LocationID = req.LocationID
	availability.Title = req.Title
	availability.StartTime = req.StartTime
	availability.EndTime = req.EndTime
	if req.RecurringRule != "" {
		availability.RecurringRule = &req.RecurringRule
	}

	rows, err := h.Series.Create(c.Request.Context(), availability, scheduling.CreateOptions{ServiceIDs: req.ServiceIDs})
	if err != nil {
		respondError(c, err, "create availability")
		return
	}

	respondSchedules(c, true, "Availability created successfully", rows)
}

// GetAvailabilities lists the practice's availability blocks in a time range.
func (h *AvailabilityHandler) GetAvailabilities(c *gin.Context) {
	listSchedules(c, h.Series, "Availabilities")
}

// GetAvailabilityByID handles fetching a single availability block by its ID.
func (h *AvailabilityHandler) GetAvailabilityByID(c *gin.Context) {
	getSchedule(c, h.Series, "Availability")
}

// GetAvailabilitySeries returns every visible instance of the block's series.
func (h *AvailabilityHandler) GetAvailabilitySeries(c *gin.Context) {
	getSeries(c, h.Series, "Availability")
}

// UpdateAvailabilityRequest represents the request body for updating availability.
type UpdateAvailabilityRequest struct {
	LocationID       *string    `json:"locationId"`
	Title            *string    `json:"title"`
	StartTime        *time.Time `json:"startTime"`
	EndTime          *time.Time `json:"endTime"`
	RecurringRule    *string    `json:"recurringRule"`
	IsOnlineBookable *bool      `json:"isOnlineBookable"`
}

// UpdateAvailability edits availability with ?editOption=single|future|all.
func (h *AvailabilityHandler) UpdateAvailability(c *gin.Context) {
	var req UpdateAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patch := scheduling.Patch[*models.Availability]{
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		RecurringRule: req.RecurringRule,
		Apply: func(a *models.Availability) {
			if req.LocationID != nil {
				a.LocationID = *req.LocationID
			}
			if req.Title != nil {
				a.Title = *req.Title
			}
			if req.IsOnlineBookable != nil {
				a.IsOnlineBookable = *req.IsOnlineBookable
			}
		},
	}
	updateSchedule(c, h.Series, "Availability", patch)
}

// DeleteAvailability removes availability with ?deleteOption=single|future|all.
func (h *AvailabilityHandler) DeleteAvailability(c *gin.Context) {
	deleteSchedule(c, h.Series, "Availability")
}
