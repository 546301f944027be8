package service

import "errors"

// ErrCapacityExceeded is returned when an event already holds max_capacity attendees.
var ErrCapacityExceeded = errors.New("event is at full capacity")

// ErrDuplicateRegistration is returned when the email is already registered for the event.
var ErrDuplicateRegistration = errors.New("email is already registered for the event")
