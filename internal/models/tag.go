package models

// Well-known tag names applied to new appointments.
const (
	TagUnpaid    = "Unpaid"
	TagNoNote    = "No Note"
	TagNewClient = "New Client"
)

// Tag is a practice-scoped label
type Tag struct {
	BaseModel
	PracticeID string `gorm:"size:36;uniqueIndex:idx_tag_practice_name" json:"practiceId"`
	Name       string `gorm:"size:100;uniqueIndex:idx_tag_practice_name" json:"name"`
}

// AppointmentTag links one tag to one appointment instance
type AppointmentTag struct {
	BaseModel
	AppointmentID string `gorm:"size:36;index;not null" json:"appointmentId"`
	TagID         string `gorm:"size:36;index;not null" json:"tagId"`
}
