package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrForbidden is returned when the principal lacks the role or ownership
	// required for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrUnauthenticated is returned when no valid session accompanies a request.
	ErrUnauthenticated = errors.New("application: not authenticated")
	// ErrInvalidCredentials is returned when a login/password pair does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned for sessions past their expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned for sessions ended by logout.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrAlreadyExists is returned when a unique attribute is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrConflict is returned when a booking overlaps an active booking of the
	// same room.
	ErrConflict = errors.New("application: booking conflict")
)

// NotFoundError names the missing resource. It matches ErrNotFound.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %d not found", strings.ToLower(e.Resource), e.ID)
}

// Is reports ErrNotFound equivalence for errors.Is.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(resource string, id int64) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError lists the active bookings that block a requested interval.
type ConflictError struct {
	RoomID         int64
	ConflictingIDs []int64
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("room %d is not available: overlaps bookings %v", e.RoomID, e.ConflictingIDs)
}

// Is reports ErrConflict equivalence for errors.Is.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError captures field level validation issues that callers can
// surface to users. Message, when set, is a summary suitable for display.
type ValidationError struct {
	Message     string
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if v.Message != "" {
		return v.Message
	}
	return "validation failed"
}

// HasErrors reports whether any issue was recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && (len(v.FieldErrors) > 0 || v.Message != "")
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil {
		return
	}
	if v.Message == "" {
		v.Message = other.Message
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func fieldError(message, field, detail string) *ValidationError {
	vErr := &ValidationError{Message: message}
	vErr.add(field, detail)
	return vErr
}
