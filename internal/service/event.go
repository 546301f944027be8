// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/Shivanand-hulikatti/eventreg/internal/repository"
	"github.com/google/uuid"
)

// EventService orchestrates event-related business operations.
type EventService struct {
	store           repository.Store
	clock           Clock
	defaultTimezone string
}

// NewEventService constructs an EventService. An empty defaultTimezone means
// model.DefaultTimezone.
func NewEventService(store repository.Store, clock Clock, defaultTimezone string) *EventService {
	if defaultTimezone == "" {
		defaultTimezone = model.DefaultTimezone
	}
	return &EventService{store: store, clock: clock, defaultTimezone: defaultTimezone}
}

// CreateEvent validates the request, normalizes its times into the event's
// timezone and stores it.
func (s *EventService) CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Location = strings.TrimSpace(req.Location)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if *req.MaxCapacity < 0 {
		return nil, model.NewValidationError("max_capacity", "Max capacity cannot be negative")
	}
	if req.Timezone == "" {
		req.Timezone = s.defaultTimezone
	}
	loc, err := time.LoadLocation(req.Timezone)
	if err != nil {
		return nil, model.NewValidationError("timezone", fmt.Sprintf("%q is not a valid timezone", req.Timezone))
	}

	// Times given without an offset are wall-clock times in the event's zone.
	start := req.StartTime.In(loc).Truncate(time.Microsecond)
	end := req.EndTime.In(loc).Truncate(time.Microsecond)
	if !end.After(start) {
		return nil, model.NewValidationError("end_time", "End time must be after start time")
	}

	event := &model.Event{
		ID:          uuid.New(),
		Name:        req.Name,
		Location:    req.Location,
		StartTime:   start,
		EndTime:     end,
		MaxCapacity: *req.MaxCapacity,
		Timezone:    req.Timezone,
	}
	if err := event.Localize(); err != nil {
		return nil, model.NewValidationError("timezone", err.Error())
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// ListUpcoming returns events whose start time is not before the current time.
func (s *EventService) ListUpcoming(ctx context.Context) ([]model.Event, error) {
	events, err := s.store.ListUpcoming(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// GetEvent returns a single event by ID.
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListAttendees returns one window of an event's attendees and the total
// number of attendees. It fails with repository.ErrNotFound for unknown events.
func (s *EventService) ListAttendees(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]model.Attendee, int, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, 0, err
	}
	attendees, total, err := s.store.ListAttendees(ctx, eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, total, nil
}
