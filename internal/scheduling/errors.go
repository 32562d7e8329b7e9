package scheduling

import "errors"

var (
	// ErrNotFound is returned when the target instance does not exist.
	ErrNotFound = errors.New("schedule not found")
	// ErrInvalidScope is returned for an unknown edit or delete option.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrInvalidRange is returned when an instance would not end after it starts.
	ErrInvalidRange = errors.New("end time must be after start time")
)
