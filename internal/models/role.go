package models

// Role defines the role a staff member has within a practice
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleClinician Role = "clinician"
	RoleStaff     Role = "staff"
)
