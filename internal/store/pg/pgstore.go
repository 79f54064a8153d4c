// Package pg is the PostgreSQL store. Every CAS transition from the domain
// store contracts maps to a conditional UPDATE/DELETE checked via affected
// rows; cross-entity units (request resolution, stock movement, delivery)
// run inside a transaction.
package pg

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Kobia22/SmartStock/internal/account"
	"github.com/Kobia22/SmartStock/internal/inventory"
	"github.com/Kobia22/SmartStock/internal/workflow"
)

const (
	pgErrUniqueViolation = "23505"
)

// Store implements account.Store, workflow.Store and inventory.Store over a
// single connection pool.
type Store struct {
	db *sql.DB
}

var (
	_ account.Store   = (*Store)(nil)
	_ workflow.Store  = (*Store)(nil)
	_ inventory.Store = (*Store)(nil)
)

// Open connects to the database identified by dsn.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing handle (used by tests and cmd wiring).
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// Permission sets persist as a jsonb object keyed by token, so membership
// tests, single-token removal and unions are native jsonb operations.
func marshalPerms(perms []string) ([]byte, error) {
	m := make(map[string]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return json.Marshal(m)
}

func unmarshalPerms(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]bool
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out, nil
}
