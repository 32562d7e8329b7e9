package models

// ClinicianService is a service a clinician offers
type ClinicianService struct {
	BaseModel
	ClinicianID      string `gorm:"size:36;index" json:"clinicianId"`
	ServiceID        string `gorm:"size:36" json:"serviceId"`
	IsActive         bool   `json:"isActive"`
	IsOnlineBookable bool   `gorm:"default:false" json:"isOnlineBookable"`
}

// AppointmentService links a service to an appointment instance
type AppointmentService struct {
	BaseModel
	AppointmentID string `gorm:"size:36;index;not null" json:"appointmentId"`
	ServiceID     string `gorm:"size:36;not null" json:"serviceId"`
}

// AvailabilityService links a service to an availability instance
type AvailabilityService struct {
	BaseModel
	AvailabilityID string `gorm:"size:36;index;not null" json:"availabilityId"`
	ServiceID      string `gorm:"size:36;not null" json:"serviceId"`
}
