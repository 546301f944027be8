// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shivanand-hulikatti/eventreg/internal/metric"
	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/Shivanand-hulikatti/eventreg/internal/repository"
	"github.com/Shivanand-hulikatti/eventreg/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	msgEventNotFound    = "Event not found"
	msgInvalidPage      = "Invalid page."
	msgCapacityExceeded = "Event is at full capacity"
	msgDuplicate        = "This email is already registered for the event"
	msgInternal         = "An unexpected error occurred"
)

// EventHandler holds all HTTP handlers for the event registration API.
type EventHandler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	metrics       *metric.Metrics
	paging        Paging
}

// NewEventHandler constructs an EventHandler. A nil metrics gets a fresh,
// unexported registry.
func NewEventHandler(
	events *service.EventService,
	registrations *service.RegistrationService,
	metrics *metric.Metrics,
	paging Paging,
) *EventHandler {
	if metrics == nil {
		metrics = metric.New()
	}
	return &EventHandler{
		events:        events,
		registrations: registrations,
		metrics:       metrics,
		paging:        paging.withDefaults(),
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// writeInternalError logs the underlying error and hides it from the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), op+" failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// eventID parses the {event_id} path parameter. A malformed ID cannot name an
// existing event, so it is reported as not found.
func eventID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "event_id"))
	if err != nil {
		writeError(w, http.StatusNotFound, msgEventNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events/
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.events.CreateEvent(r.Context(), req)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		writeInternalError(w, r, "create event", err)
		return
	}

	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events/
// Returns events that have not started yet.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListUpcoming(r.Context())
	if err != nil {
		writeInternalError(w, r, "list events", err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{event_id}/
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}

	event, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgEventNotFound)
			return
		}
		writeInternalError(w, r, "get event", err)
		return
	}

	writeJSON(w, http.StatusOK, event)
}

// ListAttendees handles GET /events/{event_id}/attendees/
// Query parameters: page (1-based), page_size.
func (h *EventHandler) ListAttendees(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		return
	}
	p, ok := h.paging.parse(r)
	if !ok {
		writeError(w, http.StatusNotFound, msgInvalidPage)
		return
	}

	attendees, total, err := h.events.ListAttendees(r.Context(), id, p.size, p.offset())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgEventNotFound)
			return
		}
		writeInternalError(w, r, "list attendees", err)
		return
	}
	if !p.exists(total) {
		writeError(w, http.StatusNotFound, msgInvalidPage)
		return
	}

	writeJSON(w, http.StatusOK, newPage(r, p, total, attendees))
}

// Register handles POST /events/{event_id}/register/
// Performs a concurrency-safe registration for the specified event.
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(w, r)
	if !ok {
		h.metrics.ObserveRegistration(model.OutcomeNotFound)
		return
	}

	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.ObserveRegistration(model.OutcomeInvalid)
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	attendee, err := h.registrations.Register(r.Context(), id, req)
	h.metrics.ObserveRegistration(service.Outcome(err))
	if err != nil {
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, msgEventNotFound)
		case errors.Is(err, service.ErrCapacityExceeded):
			writeError(w, http.StatusBadRequest, msgCapacityExceeded)
		case errors.Is(err, service.ErrDuplicateRegistration):
			writeError(w, http.StatusBadRequest, msgDuplicate)
		default:
			writeInternalError(w, r, "register", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, attendee)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
