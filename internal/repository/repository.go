// Package repository implements persistence for events and attendees.
// PostgresStore uses pgx directly; SQLiteStore uses bun for local development
// and tests. Both satisfy Store.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("already exists")

// EventStore persists events.
type EventStore interface {
	// CreateEvent inserts e. e.ID must already be set.
	CreateEvent(ctx context.Context, e *model.Event) error
	// GetEvent returns the event with its attendee count, or ErrNotFound.
	GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error)
	// ListUpcoming returns events starting at or after from, in creation order.
	ListUpcoming(ctx context.Context, from time.Time) ([]model.Event, error)
}

// AttendeeStore reads attendees.
type AttendeeStore interface {
	// ListAttendees returns one window of an event's attendees in registration
	// order, together with the event's total attendee count.
	ListAttendees(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]model.Attendee, int, error)
}

// RegistrationTx is the set of operations available inside an atomic
// registration scope. It is only valid for the lifetime of the scope.
type RegistrationTx interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error)
	CountAttendees(ctx context.Context, eventID uuid.UUID) (int, error)
	AttendeeExists(ctx context.Context, eventID uuid.UUID, email string) (bool, error)
	CreateAttendee(ctx context.Context, a *model.Attendee) error
}

// TxFn runs inside an atomic scope. Returning an error discards every write
// made through tx.
type TxFn func(ctx context.Context, tx RegistrationTx) error

// Store is the full persistence contract used by the services.
type Store interface {
	EventStore
	AttendeeStore

	// RunAtomically runs fn so that no other RunAtomically scope for the same
	// event interleaves with it. The scope is committed when fn returns nil
	// and rolled back otherwise, including on panic.
	RunAtomically(ctx context.Context, eventID uuid.UUID, fn TxFn) error
}
