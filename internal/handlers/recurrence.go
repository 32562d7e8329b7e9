package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"practice-scheduler-server/internal/recurrence"
	"practice-scheduler-server/internal/scheduling"
	"practice-scheduler-server/internal/utils"
)

// RecurrenceHandler expands rules without persisting anything.
type RecurrenceHandler struct {
	Limits recurrence.Limits
}

// NewRecurrenceHandler creates a new RecurrenceHandler.
func NewRecurrenceHandler(limits recurrence.Limits) *RecurrenceHandler {
	return &RecurrenceHandler{Limits: limits}
}

// PreviewRequest represents the request body for a recurrence preview.
type PreviewRequest struct {
	StartTime     time.Time `json:"startTime" binding:"required"`
	EndTime       time.Time `json:"endTime" binding:"required" validate:"gtfield=StartTime"`
	RecurringRule string    `json:"recurringRule" binding:"required"`
}

// PreviewResponse lists the instances a series would get.
type PreviewResponse struct {
	Rule         string                  `json:"rule"`
	OutOfPattern bool                    `json:"outOfPattern"`
	Count        int                     `json:"count"`
	Occurrences  []recurrence.Occurrence `json:"occurrences"`
}

// Preview returns the visible instances a create with this rule would produce.
func (h *RecurrenceHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	occurrences, outOfPattern := scheduling.Plan(req.StartTime, req.EndTime, req.RecurringRule, h.Limits)
	if outOfPattern {
		occurrences = occurrences[1:]
	}

	utils.Success(c, "Recurrence expanded successfully", PreviewResponse{
		Rule:         recurrence.Parse(req.RecurringRule).String(),
		OutOfPattern: outOfPattern,
		Count:        len(occurrences),
		Occurrences:  occurrences,
	})
}
