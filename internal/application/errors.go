package application

import "errors"

var (
	// ErrNotFound is returned when a room or entry lookup misses. It is
	// never fatal; callers surface it as an absent result or a 4xx.
	ErrNotFound = errors.New("application: not found")
	// ErrStoreUnavailable is returned when the persistence layer cannot be
	// reached. It is reported to the caller of the failing operation and
	// must never terminate the process or unrelated connections.
	ErrStoreUnavailable = errors.New("application: store unavailable")
	// ErrAlreadyExists is returned when provisioning collides with an
	// existing record.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
