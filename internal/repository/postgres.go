package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolationCode is the PostgreSQL error code for unique constraint violations.
const uniqueViolationCode = "23505"

const eventColumns = `e.id, e.name, e.location, e.start_time, e.end_time, e.max_capacity, e.timezone,
	(SELECT COUNT(*) FROM attendees a WHERE a.event_id = e.id)`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateEvent inserts a new event.
func (s *PostgresStore) CreateEvent(ctx context.Context, e *model.Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, name, location, start_time, end_time, max_capacity, timezone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Name, e.Location, e.StartTime, e.EndTime, e.MaxCapacity, e.Timezone,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", mapPgError(err))
	}
	return nil
}

// GetEvent returns a single event or ErrNotFound.
func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return getEvent(ctx, s.db, id)
}

// ListUpcoming returns events starting at or after from, in creation order.
func (s *PostgresStore) ListUpcoming(ctx context.Context, from time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events e
		 WHERE e.start_time >= $1
		 ORDER BY e.created_at, e.id`,
		from,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListAttendees returns a window of an event's attendees and the total count.
func (s *PostgresStore) ListAttendees(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]model.Attendee, int, error) {
	var total int
	if err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendees WHERE event_id = $1`, eventID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attendees: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, event_id, name, email, registered_at
		 FROM attendees
		 WHERE event_id = $1
		 ORDER BY registered_at ASC, id ASC
		 LIMIT $2 OFFSET $3`,
		eventID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	var attendees []model.Attendee
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.ID, &a.EventID, &a.Name, &a.Email, &a.RegisteredAt); err != nil {
			return nil, 0, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, a)
	}
	return attendees, total, rows.Err()
}

// RunAtomically runs fn inside a transaction holding a row-level lock on the event.
//
// SELECT … FOR UPDATE acquires an exclusive lock on the event row the moment
// it executes. Any other transaction issuing the same statement for that row
// blocks until this one commits or rolls back, so concurrent registrations for
// one event read the attendee count one at a time. Registrations for other
// events are unaffected. When the event does not exist no row is locked and fn
// observes ErrNotFound from GetEvent.
func (s *PostgresStore) RunAtomically(ctx context.Context, eventID uuid.UUID, fn TxFn) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// No-op once committed; covers error returns and panics in fn.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID); err != nil {
		return fmt.Errorf("lock event row: %w", err)
	}

	if err := fn(ctx, &pgRegistrationTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// pgRegistrationTx exposes registration queries bound to one transaction.
type pgRegistrationTx struct {
	tx pgx.Tx
}

func (t *pgRegistrationTx) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return getEvent(ctx, t.tx, id)
}

func (t *pgRegistrationTx) CountAttendees(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	if err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendees WHERE event_id = $1`, eventID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}
	return n, nil
}

func (t *pgRegistrationTx) AttendeeExists(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM attendees WHERE event_id = $1 AND email = $2)`,
		eventID, email,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

func (t *pgRegistrationTx) CreateAttendee(ctx context.Context, a *model.Attendee) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO attendees (id, event_id, name, email, registered_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.EventID, a.Name, a.Email, a.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("insert attendee: %w", mapPgError(err))
	}
	return nil
}

func getEvent(ctx context.Context, q querier, id uuid.UUID) (*model.Event, error) {
	e, err := scanEvent(q.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Name, &e.Location, &e.StartTime, &e.EndTime,
		&e.MaxCapacity, &e.Timezone, &e.AttendeesCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	if err := e.Localize(); err != nil {
		return nil, err
	}
	return &e, nil
}

// mapPgError translates constraint violations into repository sentinels.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
