// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/bidwire/gate/internal/model"
	"github.com/bidwire/gate/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) BidsFor(ctx context.Context, projectID, contractorAccountID string) ([]*model.Bid, error) {
	return queryBidsFor(ctx, s.db, projectID, contractorAccountID)
}

func (s *PostgresStore) BiddersFor(ctx context.Context, projectID string) ([]string, error) {
	return queryBiddersFor(ctx, s.db, projectID)
}

func (s *PostgresStore) GetParticipant(ctx context.Context, agentID string) (*model.Participant, error) {
	return queryGetParticipant(ctx, s.db, agentID)
}

func (s *PostgresStore) PutParticipant(ctx context.Context, p *model.Participant) error {
	return queryPutParticipant(ctx, s.db, p)
}

func (s *PostgresStore) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	return queryListParticipants(ctx, s.db)
}

func (s *PostgresStore) HasPriorContact(ctx context.Context, projectID, contractorAccountID string) (bool, error) {
	return queryHasPriorContact(ctx, s.db, projectID, contractorAccountID)
}

func (s *PostgresStore) RecordContact(ctx context.Context, projectID, contractorAccountID string) error {
	return queryRecordContact(ctx, s.db, projectID, contractorAccountID)
}

func (s *PostgresStore) ContactsFor(ctx context.Context, projectID string) ([]string, error) {
	return queryContactsFor(ctx, s.db, projectID)
}

func (s *PostgresStore) RecordDecision(ctx context.Context, d *model.Decision) error {
	return queryRecordDecision(ctx, s.db, d)
}

func (s *PostgresStore) ListDecisions(ctx context.Context, filter store.DecisionFilter) ([]*model.Decision, error) {
	return queryListDecisions(ctx, s.db, filter)
}
