package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/Shivanand-hulikatti/eventreg/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFixture is one freshly initialised, empty store plus the raw delete
// used to exercise cascades.
type storeFixture struct {
	store       repository.Store
	deleteEvent func(ctx context.Context, id uuid.UUID) error
}

var baseTime = time.Date(2030, time.March, 10, 9, 0, 0, 0, time.UTC)

func newEvent(name string, start time.Time, capacity int) *model.Event {
	return &model.Event{
		ID:          uuid.New(),
		Name:        name,
		Location:    "Hall A",
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		MaxCapacity: capacity,
		Timezone:    model.DefaultTimezone,
	}
}

func newAttendee(eventID uuid.UUID, email string, at time.Time) *model.Attendee {
	return &model.Attendee{
		ID:           uuid.New(),
		EventID:      eventID,
		Name:         "Attendee " + email,
		Email:        email,
		RegisteredAt: at,
	}
}

// register is the minimal check-then-insert used to exercise RunAtomically.
func register(ctx context.Context, s repository.Store, eventID uuid.UUID, email string) error {
	return s.RunAtomically(ctx, eventID, func(ctx context.Context, tx repository.RegistrationTx) error {
		event, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		n, err := tx.CountAttendees(ctx, eventID)
		if err != nil {
			return err
		}
		if n >= event.MaxCapacity {
			return errFull
		}
		return tx.CreateAttendee(ctx, newAttendee(eventID, email, time.Now().UTC()))
	})
}

var errFull = errors.New("full")

func runStoreContract(t *testing.T, newFixture func(t *testing.T) storeFixture) {
	t.Run("create and get event", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("Launch", baseTime, 10)
		require.NoError(t, f.store.CreateEvent(ctx, e))

		got, err := f.store.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, "Launch", got.Name)
		assert.Equal(t, "Hall A", got.Location)
		assert.Equal(t, 10, got.MaxCapacity)
		assert.Equal(t, 0, got.AttendeesCount)
		assert.True(t, got.StartTime.Equal(baseTime))
		assert.True(t, got.EndTime.Equal(baseTime.Add(2*time.Hour)))
		assert.Equal(t, model.DefaultTimezone, got.StartTime.Location().String())
	})

	t.Run("get missing event", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.GetEvent(context.Background(), uuid.New())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("list upcoming filters and keeps creation order", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		later := newEvent("later", baseTime.Add(48*time.Hour), 5)
		past := newEvent("past", baseTime.Add(-time.Hour), 5)
		exact := newEvent("exact", baseTime, 5)
		for _, e := range []*model.Event{later, past, exact} {
			require.NoError(t, f.store.CreateEvent(ctx, e))
		}
		require.NoError(t, register(ctx, f.store, later.ID, "a@example.com"))

		events, err := f.store.ListUpcoming(ctx, baseTime)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "later", events[0].Name)
		assert.Equal(t, 1, events[0].AttendeesCount)
		assert.Equal(t, "exact", events[1].Name)
	})

	t.Run("atomic scope commits", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("commit", baseTime, 3)
		require.NoError(t, f.store.CreateEvent(ctx, e))

		require.NoError(t, register(ctx, f.store, e.ID, "one@example.com"))

		got, err := f.store.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.AttendeesCount)
	})

	t.Run("atomic scope rolls back on error", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("rollback", baseTime, 3)
		require.NoError(t, f.store.CreateEvent(ctx, e))

		boom := errors.New("boom")
		err := f.store.RunAtomically(ctx, e.ID, func(ctx context.Context, tx repository.RegistrationTx) error {
			if err := tx.CreateAttendee(ctx, newAttendee(e.ID, "x@example.com", baseTime)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, total, err := f.store.ListAttendees(ctx, e.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("atomic scope rolls back on panic", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("panic", baseTime, 3)
		require.NoError(t, f.store.CreateEvent(ctx, e))

		assert.Panics(t, func() {
			_ = f.store.RunAtomically(ctx, e.ID, func(ctx context.Context, tx repository.RegistrationTx) error {
				if err := tx.CreateAttendee(ctx, newAttendee(e.ID, "p@example.com", baseTime)); err != nil {
					return err
				}
				panic("boom")
			})
		})

		// the scope was released: a new one can run and sees nothing
		require.NoError(t, register(ctx, f.store, e.ID, "after@example.com"))
		_, total, err := f.store.ListAttendees(ctx, e.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("duplicate email maps to ErrDuplicate", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("dup", baseTime, 3)
		require.NoError(t, f.store.CreateEvent(ctx, e))

		require.NoError(t, register(ctx, f.store, e.ID, "same@example.com"))
		err := register(ctx, f.store, e.ID, "same@example.com")
		assert.ErrorIs(t, err, repository.ErrDuplicate)

		// same email on another event is fine
		other := newEvent("other", baseTime, 3)
		require.NoError(t, f.store.CreateEvent(ctx, other))
		assert.NoError(t, register(ctx, f.store, other.ID, "same@example.com"))
	})

	t.Run("attendee exists", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("exists", baseTime, 3)
		require.NoError(t, f.store.CreateEvent(ctx, e))
		require.NoError(t, register(ctx, f.store, e.ID, "here@example.com"))

		err := f.store.RunAtomically(ctx, e.ID, func(ctx context.Context, tx repository.RegistrationTx) error {
			yes, err := tx.AttendeeExists(ctx, e.ID, "here@example.com")
			require.NoError(t, err)
			assert.True(t, yes)
			no, err := tx.AttendeeExists(ctx, e.ID, "gone@example.com")
			require.NoError(t, err)
			assert.False(t, no)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("list attendees pages in registration order", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("paged", baseTime, 50)
		require.NoError(t, f.store.CreateEvent(ctx, e))
		for i := 0; i < 25; i++ {
			require.NoError(t, register(ctx, f.store, e.ID, fmt.Sprintf("u%02d@example.com", i)))
		}

		first, total, err := f.store.ListAttendees(ctx, e.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 25, total)
		require.Len(t, first, 10)
		assert.Equal(t, "u00@example.com", first[0].Email)
		assert.Equal(t, e.ID, first[0].EventID)

		last, _, err := f.store.ListAttendees(ctx, e.ID, 10, 20)
		require.NoError(t, err)
		require.Len(t, last, 5)
		assert.Equal(t, "u24@example.com", last[4].Email)

		beyond, total, err := f.store.ListAttendees(ctx, e.ID, 10, 30)
		require.NoError(t, err)
		assert.Empty(t, beyond)
		assert.Equal(t, 25, total)
	})

	t.Run("deleting an event cascades to attendees", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		e := newEvent("cascade", baseTime, 3)
		require.NoError(t, f.store.CreateEvent(ctx, e))
		require.NoError(t, register(ctx, f.store, e.ID, "c@example.com"))

		require.NoError(t, f.deleteEvent(ctx, e.ID))

		_, total, err := f.store.ListAttendees(ctx, e.ID, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("concurrent registrations never overbook", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		const capacity, attempts = 5, 40
		e := newEvent("rush", baseTime, capacity)
		require.NoError(t, f.store.CreateEvent(ctx, e))

		var ok, full, other int32
		var wg sync.WaitGroup
		wg.Add(attempts)
		for i := 0; i < attempts; i++ {
			go func(i int) {
				defer wg.Done()
				err := register(ctx, f.store, e.ID, fmt.Sprintf("gopher%d@example.com", i))
				switch {
				case err == nil:
					atomic.AddInt32(&ok, 1)
				case errors.Is(err, errFull):
					atomic.AddInt32(&full, 1)
				default:
					t.Logf("unexpected error for attempt %d: %v", i, err)
					atomic.AddInt32(&other, 1)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(capacity), ok)
		assert.Equal(t, int32(attempts-capacity), full)
		assert.Equal(t, int32(0), other)

		got, err := f.store.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, capacity, got.AttendeesCount)
	})
}
