package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/eventreg/internal/database"
	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/Shivanand-hulikatti/eventreg/internal/repository"
	"github.com/Shivanand-hulikatti/eventreg/internal/service"
	"github.com/stretchr/testify/require"
)

// fixedNow is the reference "current time" for every service test.
var fixedNow = time.Date(2030, time.June, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() service.Clock {
	return service.ClockFunc(func() time.Time { return fixedNow })
}

func newSQLiteStore(t *testing.T) repository.Store {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := repository.NewSQLiteStore(db)
	require.NoError(t, store.CreateSchema(ctx))
	return store
}

func ptr[T any](v T) *T { return &v }

func at(t time.Time) *model.Time { return &model.Time{Time: t} }

func eventRequest(start time.Time, capacity int) model.CreateEventRequest {
	return model.CreateEventRequest{
		Name:        "Test Event",
		Location:    "Test Location",
		StartTime:   at(start),
		EndTime:     at(start.Add(2 * time.Hour)),
		MaxCapacity: ptr(capacity),
	}
}

// createEvent creates an event starting a day after fixedNow.
func createEvent(t *testing.T, svc *service.EventService, capacity int) *model.Event {
	t.Helper()
	e, err := svc.CreateEvent(context.Background(), eventRequest(fixedNow.Add(24*time.Hour), capacity))
	require.NoError(t, err)
	return e
}
