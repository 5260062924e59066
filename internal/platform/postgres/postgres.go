// Package postgres opens the shared database handle, bootstraps the schema and
// classifies driver errors into sentinel errors.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"hostelgate/internal/platform/config"
	"hostelgate/pkg/platform/sentinel"
)

const uniqueViolation = pq.ErrorCode("23505")

// Executor is satisfied by *sql.DB and *sql.Tx so stores can run inside or
// outside a transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects with lib/pq, applies pool settings and pings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Classify maps a driver error onto the sentinel taxonomy, keeping the
// original error in the chain:
//   - sql.ErrNoRows            -> sentinel.ErrNotFound
//   - unique violation         -> sentinel.ErrConflict
//   - anything else            -> sentinel.ErrUnavailable (connection loss,
//     timeouts, server errors)
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	case IsUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", op, sentinel.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrUnavailable, err)
}
