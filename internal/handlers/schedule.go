package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"practice-scheduler-server/internal/middleware"
	"practice-scheduler-server/internal/scheduling"
	"practice-scheduler-server/internal/utils"
)

// SeriesResponse is returned when an operation touches more than one instance.
type SeriesResponse[T any] struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
	Items   []T    `json:"items"`
}

// DeleteResponse lists the instances removed by a delete.
type DeleteResponse struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// ListQuery holds the filters accepted by list endpoints.
type ListQuery struct {
	Start       time.Time `form:"start" time_format:"2006-01-02T15:04:05Z07:00"`
	End         time.Time `form:"end" time_format:"2006-01-02T15:04:05Z07:00"`
	ClinicianID string    `form:"clinicianId"`
}

// respondSchedules sends a single entity, or a series envelope when rows has
// more than one element.
func respondSchedules[PT any](c *gin.Context, created bool, message string, rows []PT) {
	send := utils.Success
	if created {
		send = utils.Created
	}
	if len(rows) == 1 {
		send(c, message, rows[0])
		return
	}
	send(c, message, SeriesResponse[PT]{Count: len(rows), Message: message, Items: rows})
}

// respondError maps scheduling errors onto HTTP responses.
func respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		utils.NotFound(c, "Schedule not found")
	case errors.Is(err, scheduling.ErrInvalidScope), errors.Is(err, scheduling.ErrInvalidRange):
		utils.BadRequest(c, err.Error())
	default:
		middleware.GetLogger(c).Error("failed to "+action, zap.Error(err))
		utils.InternalServerError(c, "Failed to "+action)
	}
}

// loadInPractice fetches the instance named by the :id parameter and hides
// instances owned by another practice.
func loadInPractice[T any, PT scheduling.Entity[T]](c *gin.Context, series *scheduling.Series[T, PT]) (PT, bool) {
	practiceID, ok := middleware.GetPracticeIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Practice not found in token")
		return nil, false
	}

	row, err := series.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "load schedule")
		return nil, false
	}
	if row.Sched().PracticeID != practiceID {
		utils.NotFound(c, "Schedule not found")
		return nil, false
	}
	return row, true
}

func listSchedules[T any, PT scheduling.Entity[T]](c *gin.Context, series *scheduling.Series[T, PT], noun string) {
	practiceID, ok := middleware.GetPracticeIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Practice not found in token")
		return
	}

	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, "Invalid query: "+err.Error())
		return
	}
	if !q.Start.IsZero() && !q.End.IsZero() && !q.End.After(q.Start) {
		utils.BadRequest(c, "end must be after start")
		return
	}

	rows, err := series.List(c.Request.Context(), scheduling.ListFilter{
		PracticeID:  practiceID,
		ClinicianID: q.ClinicianID,
		From:        q.Start,
		To:          q.End,
	})
	if err != nil {
		respondError(c, err, "fetch "+noun)
		return
	}
	utils.Success(c, noun+" fetched successfully", rows)
}

func getSchedule[T any, PT scheduling.Entity[T]](c *gin.Context, series *scheduling.Series[T, PT], noun string) {
	row, ok := loadInPractice(c, series)
	if !ok {
		return
	}
	utils.Success(c, noun+" fetched successfully", row)
}

func getSeries[T any, PT scheduling.Entity[T]](c *gin.Context, series *scheduling.Series[T, PT], noun string) {
	row, ok := loadInPractice(c, series)
	if !ok {
		return
	}

	members, err := series.Members(c.Request.Context(), row.Base().ID)
	if err != nil {
		respondError(c, err, "fetch series")
		return
	}
	message := noun + " series fetched successfully"
	utils.Success(c, message, SeriesResponse[PT]{Count: len(members), Message: message, Items: members})
}

func updateSchedule[T any, PT scheduling.Entity[T]](c *gin.Context, series *scheduling.Series[T, PT], noun string, patch scheduling.Patch[PT]) {
	scope, err := scheduling.ParseScope(c.Query("editOption"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	row, ok := loadInPractice(c, series)
	if !ok {
		return
	}

	rows, err := series.Edit(c.Request.Context(), row.Base().ID, scope, patch)
	if err != nil {
		respondError(c, err, "update "+noun)
		return
	}
	respondSchedules(c, false, noun+" updated successfully", rows)
}

func deleteSchedule[T any, PT scheduling.Entity[T]](c *gin.Context, series *scheduling.Series[T, PT], noun string) {
	scope, err := scheduling.ParseScope(c.Query("deleteOption"))
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	row, ok := loadInPractice(c, series)
	if !ok {
		return
	}

	ids, err := series.Delete(c.Request.Context(), row.Base().ID, scope)
	if err != nil {
		respondError(c, err, "delete "+noun)
		return
	}
	utils.Success(c, noun+" deleted successfully", DeleteResponse{Count: len(ids), IDs: ids})
}
