package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusNoShow    AppointmentStatus = "no_show"
)

// Appointment represents a scheduled session between a clinician and a client group
type Appointment struct {
	BaseModel
	Schedule
	ClientGroupID string            `gorm:"size:36;index" json:"clientGroupId"`
	Status        AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	Notes         string            `gorm:"type:text" json:"notes"`
}

// Availability represents a block of clinician time open for booking
type Availability struct {
	BaseModel
	Schedule
	IsOnlineBookable bool `gorm:"default:false" json:"isOnlineBookable"`
}
