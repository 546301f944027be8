package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/Shivanand-hulikatti/eventreg/internal/repository"
	"github.com/google/uuid"
)

// RegistrationService performs the atomic check-and-create for attendees.
type RegistrationService struct {
	store repository.Store
	clock Clock
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(store repository.Store, clock Clock) *RegistrationService {
	return &RegistrationService{store: store, clock: clock}
}

// Register validates the request and registers a new attendee for eventID.
//
// The capacity check, the duplicate check and the insert run in one atomic
// scope, so two concurrent registrations for the same event can never both
// observe a free seat. Failures:
//   - *model.ValidationError for a malformed name or email
//   - repository.ErrNotFound when the event does not exist
//   - ErrCapacityExceeded when the event is full
//   - ErrDuplicateRegistration when the email is already registered
func (s *RegistrationService) Register(ctx context.Context, eventID uuid.UUID, req model.RegisterRequest) (*model.Attendee, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var attendee *model.Attendee
	err := s.store.RunAtomically(ctx, eventID, func(ctx context.Context, tx repository.RegistrationTx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}

		event.AttendeesCount, err = tx.CountAttendees(ctx, eventID)
		if err != nil {
			return err
		}
		if event.IsFull() {
			return ErrCapacityExceeded
		}

		exists, err := tx.AttendeeExists(ctx, eventID, req.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateRegistration
		}

		a := &model.Attendee{
			ID:           uuid.New(),
			EventID:      eventID,
			Name:         req.Name,
			Email:        req.Email,
			RegisteredAt: s.clock.Now().UTC().Truncate(time.Microsecond),
		}
		if err := tx.CreateAttendee(ctx, a); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateRegistration
			}
			return err
		}
		attendee = a
		return nil
	})
	if err != nil {
		// Surface domain errors directly so handlers can set the right status.
		if errors.Is(err, repository.ErrNotFound) ||
			errors.Is(err, ErrCapacityExceeded) ||
			errors.Is(err, ErrDuplicateRegistration) {
			return nil, err
		}
		return nil, fmt.Errorf("register for event: %w", err)
	}

	slog.DebugContext(ctx, "attendee registered",
		"event_id", eventID,
		"attendee_id", attendee.ID)
	return attendee, nil
}

// Outcome classifies the result of Register for logging and metrics.
func Outcome(err error) model.RegistrationOutcome {
	var verr *model.ValidationError
	switch {
	case err == nil:
		return model.OutcomeCreated
	case errors.As(err, &verr):
		return model.OutcomeInvalid
	case errors.Is(err, repository.ErrNotFound):
		return model.OutcomeNotFound
	case errors.Is(err, ErrCapacityExceeded):
		return model.OutcomeCapacityExceeded
	case errors.Is(err, ErrDuplicateRegistration):
		return model.OutcomeDuplicate
	default:
		return model.OutcomeError
	}
}
