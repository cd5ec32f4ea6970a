package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MRamiBalles/ToyWorkshop/server/internal/domain/toy"
	"github.com/MRamiBalles/ToyWorkshop/server/internal/events"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultWriteTimeout bounds one write-through or archive call.
const DefaultWriteTimeout = 5 * time.Second

// Store bundles an open database with its repositories.
type Store struct {
	db     *sql.DB
	Events EventRepository
	Toys   ToyRecordRepository

	writeTimeout time.Duration
}

// Open connects to the configured driver: a file path for sqlite, a DSN for postgres.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite, "":
		db, err := InitSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return &Store{
			db:           db,
			Events:       NewSQLiteEventRepository(db),
			Toys:         NewSQLiteToyRecordRepository(db),
			writeTimeout: DefaultWriteTimeout,
		}, nil
	case DriverPostgres:
		db, err := InitPostgres(dsn)
		if err != nil {
			return nil, err
		}
		return &Store{
			db:           db,
			Events:       NewPostgresEventRepository(db),
			Toys:         NewPostgresToyRecordRepository(db),
			writeTimeout: DefaultWriteTimeout,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// SetPoolSize applies connection pool limits. SQLite keeps its single writer.
func (s *Store) SetPoolSize(maxOpen, maxIdle int) {
	if _, ok := s.Events.(*SQLiteEventRepository); ok {
		return
	}
	if maxOpen > 0 {
		s.db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		s.db.SetMaxIdleConns(maxIdle)
	}
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reconstructor returns a session history builder over this store.
func (s *Store) Reconstructor() *Reconstructor {
	return NewReconstructor(s.Events, s.Toys)
}

// RebuildSession returns the archived history of one session.
func (s *Store) RebuildSession(ctx context.Context, sessionID string) (*SessionHistory, error) {
	return s.Reconstructor().RebuildSession(ctx, sessionID)
}

// ListSessions returns the archived session IDs, most recent first.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	return s.Toys.ListSessions(ctx)
}

// Append implements events.EventPersister.
func (s *Store) Append(e events.GameEvent) error {
	row, err := FromEvent(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	return s.Events.Append(ctx, row)
}

// SaveRecord archives a finished toy with its score.
func (s *Store) SaveRecord(sessionID string, rec toy.Record, score int) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	return s.Toys.Save(ctx, FromRecord(sessionID, rec, score))
}

var _ events.EventPersister = (*Store)(nil)
