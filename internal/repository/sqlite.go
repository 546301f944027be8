package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/eventreg/internal/model"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// eventRow is the SQLite representation of an event. Times are unix
// microseconds in UTC so range filters compare numerically.
type eventRow struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID          string `bun:"id,pk"`
	Name        string `bun:"name,notnull"`
	Location    string `bun:"location,notnull"`
	StartTime   int64  `bun:"start_time,notnull"`
	EndTime     int64  `bun:"end_time,notnull"`
	MaxCapacity int    `bun:"max_capacity,notnull"`
	Timezone    string `bun:"timezone,notnull"`
	CreatedAt   int64  `bun:"created_at,notnull"`

	AttendeesCount int `bun:"attendees_count,scanonly"`
}

type attendeeRow struct {
	bun.BaseModel `bun:"table:attendees,alias:a"`

	ID           string `bun:"id,pk"`
	EventID      string `bun:"event_id,notnull,unique:attendees_event_email_key"`
	Name         string `bun:"name,notnull"`
	Email        string `bun:"email,notnull,unique:attendees_event_email_key"`
	RegisteredAt int64  `bun:"registered_at,notnull"`
}

func newEventRow(e *model.Event) *eventRow {
	return &eventRow{
		ID:          e.ID.String(),
		Name:        e.Name,
		Location:    e.Location,
		StartTime:   e.StartTime.UnixMicro(),
		EndTime:     e.EndTime.UnixMicro(),
		MaxCapacity: e.MaxCapacity,
		Timezone:    e.Timezone,
		CreatedAt:   time.Now().UnixMicro(),
	}
}

func (r *eventRow) toModel() (*model.Event, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse event id: %w", err)
	}
	e := &model.Event{
		ID:             id,
		Name:           r.Name,
		Location:       r.Location,
		StartTime:      time.UnixMicro(r.StartTime),
		EndTime:        time.UnixMicro(r.EndTime),
		MaxCapacity:    r.MaxCapacity,
		Timezone:       r.Timezone,
		AttendeesCount: r.AttendeesCount,
	}
	if err := e.Localize(); err != nil {
		return nil, err
	}
	return e, nil
}

func newAttendeeRow(a *model.Attendee) *attendeeRow {
	return &attendeeRow{
		ID:           a.ID.String(),
		EventID:      a.EventID.String(),
		Name:         a.Name,
		Email:        a.Email,
		RegisteredAt: a.RegisteredAt.UnixMicro(),
	}
}

func (r *attendeeRow) toModel() (*model.Attendee, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse attendee id: %w", err)
	}
	eventID, err := uuid.Parse(r.EventID)
	if err != nil {
		return nil, fmt.Errorf("parse attendee event id: %w", err)
	}
	return &model.Attendee{
		ID:           id,
		EventID:      eventID,
		Name:         r.Name,
		Email:        r.Email,
		RegisteredAt: time.UnixMicro(r.RegisteredAt).UTC(),
	}, nil
}

// SQLiteStore implements Store on SQLite through bun.
//
// Atomic scopes rely on the handle being pinned to one connection (see
// database.OpenSQLite): a transaction holds the only connection until it ends,
// so scopes never interleave.
type SQLiteStore struct {
	db *bun.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore constructs a SQLiteStore.
func NewSQLiteStore(db *bun.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateSchema creates tables and indexes if they do not already exist.
func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*eventRow)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create events table: %w", err)
		}
		if _, err := tx.NewCreateTable().
			Model((*attendeeRow)(nil)).
			IfNotExists().
			ForeignKey(`("event_id") REFERENCES "events" ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return fmt.Errorf("create attendees table: %w", err)
		}
		if _, err := tx.NewCreateIndex().
			Model((*eventRow)(nil)).
			Index("events_start_time_idx").
			Column("start_time").
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create events index: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, e *model.Event) error {
	if _, err := s.db.NewInsert().Model(newEventRow(e)).Exec(ctx); err != nil {
		return fmt.Errorf("insert event: %w", mapSQLiteError(err))
	}
	return nil
}

func (s *SQLiteStore) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return sqliteGetEvent(ctx, s.db, id)
}

func (s *SQLiteStore) ListUpcoming(ctx context.Context, from time.Time) ([]model.Event, error) {
	var rows []eventRow
	if err := selectEvents(s.db, &rows).
		Where("e.start_time >= ?", from.UnixMicro()).
		OrderExpr("e.rowid ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]model.Event, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, nil
}

func (s *SQLiteStore) ListAttendees(ctx context.Context, eventID uuid.UUID, limit, offset int) ([]model.Attendee, int, error) {
	var rows []attendeeRow
	total, err := s.db.NewSelect().
		Model(&rows).
		Where("a.event_id = ?", eventID.String()).
		OrderExpr("a.rowid ASC").
		Limit(limit).
		Offset(offset).
		ScanAndCount(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}

	attendees := make([]model.Attendee, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		attendees = append(attendees, *a)
	}
	return attendees, total, nil
}

func (s *SQLiteStore) RunAtomically(ctx context.Context, eventID uuid.UUID, fn TxFn) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &sqliteRegistrationTx{db: tx})
	})
}

type sqliteRegistrationTx struct {
	db bun.IDB
}

func (t *sqliteRegistrationTx) GetEvent(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	return sqliteGetEvent(ctx, t.db, id)
}

func (t *sqliteRegistrationTx) CountAttendees(ctx context.Context, eventID uuid.UUID) (int, error) {
	n, err := t.db.NewSelect().
		Model((*attendeeRow)(nil)).
		Where("a.event_id = ?", eventID.String()).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attendees: %w", err)
	}
	return n, nil
}

func (t *sqliteRegistrationTx) AttendeeExists(ctx context.Context, eventID uuid.UUID, email string) (bool, error) {
	exists, err := t.db.NewSelect().
		Model((*attendeeRow)(nil)).
		Where("a.event_id = ?", eventID.String()).
		Where("a.email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

func (t *sqliteRegistrationTx) CreateAttendee(ctx context.Context, a *model.Attendee) error {
	if _, err := t.db.NewInsert().Model(newAttendeeRow(a)).Exec(ctx); err != nil {
		return fmt.Errorf("insert attendee: %w", mapSQLiteError(err))
	}
	return nil
}

func selectEvents(db bun.IDB, dst any) *bun.SelectQuery {
	return db.NewSelect().
		Model(dst).
		ColumnExpr("e.*").
		ColumnExpr("(SELECT COUNT(*) FROM attendees AS a WHERE a.event_id = e.id) AS attendees_count")
}

func sqliteGetEvent(ctx context.Context, db bun.IDB, id uuid.UUID) (*model.Event, error) {
	row := new(eventRow)
	if err := selectEvents(db, row).
		Where("e.id = ?", id.String()).
		Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return row.toModel()
}

// mapSQLiteError translates constraint violations into repository sentinels.
// sqliteshim may load either the cgo or the pure-Go driver, so the check is
// on the message both of them emit.
func mapSQLiteError(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
