// Package model defines the core domain types for the event registration system.
package model

import (
	"fmt"
	"math"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
)

// DefaultTimezone is used for events created without an explicit timezone.
const DefaultTimezone = "Asia/Kolkata"

// Event represents a schedulable activity with a time window and a capacity.
type Event struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	MaxCapacity    int       `json:"max_capacity"`
	Timezone       string    `json:"timezone"`
	AttendeesCount int       `json:"attendees_count"`
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.AttendeesCount >= e.MaxCapacity
}

// Localize converts StartTime and EndTime into the event's declared timezone.
func (e *Event) Localize() error {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", e.Timezone, err)
	}
	e.StartTime = e.StartTime.In(loc)
	e.EndTime = e.EndTime.In(loc)
	return nil
}

// Attendee represents a person registered for an event.
type Attendee struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"-"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// MaxCapacityLimit is the largest capacity the stores can hold (a 32-bit
// INTEGER column in Postgres).
const MaxCapacityLimit = math.MaxInt32

// CreateEventRequest is the payload for creating a new event.
// Pointer fields distinguish "missing" from the zero value.
type CreateEventRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Location    string `json:"location" validate:"required,max=200"`
	StartTime   *Time  `json:"start_time" validate:"required"`
	EndTime     *Time  `json:"end_time" validate:"required"`
	MaxCapacity *int   `json:"max_capacity" validate:"required,lte=2147483647"`
	Timezone    string `json:"timezone" validate:"omitempty,max=50,timezone"`
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,max=254,email"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ValidationError reports malformed or inconsistent input.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError constructs a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RegistrationOutcome summarises a single registration attempt.
// Used in the concurrent test harness and for metrics labels.
type RegistrationOutcome string

const (
	OutcomeCreated          RegistrationOutcome = "created"
	OutcomeNotFound         RegistrationOutcome = "not_found"
	OutcomeCapacityExceeded RegistrationOutcome = "capacity_exceeded"
	OutcomeDuplicate        RegistrationOutcome = "duplicate"
	OutcomeInvalid          RegistrationOutcome = "invalid"
	OutcomeError            RegistrationOutcome = "error"
)
