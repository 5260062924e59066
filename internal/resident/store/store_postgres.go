package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hostelgate/internal/platform/postgres"
	"hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	"hostelgate/pkg/platform/sentinel"
	txcontext "hostelgate/pkg/platform/tx"
)

const residentColumns = `id, register_no, name, room_no, course, current_status, last_movement_id, created_at, updated_at`

// PostgresStore persists residents in PostgreSQL. Calls made with a
// transaction in ctx (see pkg/platform/tx) run inside it.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed resident store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) (postgres.Executor, bool) {
	if tx, ok := txcontext.From(ctx); ok {
		return tx, true
	}
	return s.db, false
}

func (s *PostgresStore) Create(ctx context.Context, r *models.Resident) error {
	query := `
		INSERT INTO residents (register_no, name, room_no, course, current_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	db, _ := s.execer(ctx)
	err := db.QueryRowContext(ctx, query,
		r.RegisterNo, r.Name, r.RoomNo, r.Course, r.CurrentStatus, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		return postgres.Classify("create resident", err)
	}
	return nil
}

// FindByID reads one resident. Inside a transaction the row stays locked
// until commit or rollback.
func (s *PostgresStore) FindByID(ctx context.Context, residentID id.ResidentID) (*models.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents WHERE id = $1`
	if _, inTx := s.execer(ctx); inTx {
		query += ` FOR UPDATE`
	}
	return s.findOne(ctx, "find resident by id", query, int64(residentID))
}

func (s *PostgresStore) FindByRegisterNo(ctx context.Context, registerNo string) (*models.Resident, error) {
	query := `SELECT ` + residentColumns + ` FROM residents WHERE register_no = $1`
	return s.findOne(ctx, "find resident by register number", query, registerNo)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Resident, error) {
	db, _ := s.execer(ctx)
	rows, err := db.QueryContext(ctx, `SELECT `+residentColumns+` FROM residents ORDER BY id`)
	if err != nil {
		return nil, postgres.Classify("list residents", err)
	}
	defer rows.Close()

	var out []*models.Resident
	for rows.Next() {
		r, err := scanResident(rows)
		if err != nil {
			return nil, postgres.Classify("scan resident", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("iterate residents", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Resident) error {
	query := `
		UPDATE residents
		SET register_no = $2, name = $3, room_no = $4, course = $5, updated_at = $6
		WHERE id = $1
	`
	db, _ := s.execer(ctx)
	res, err := db.ExecContext(ctx, query, int64(r.ID), r.RegisterNo, r.Name, r.RoomNo, r.Course, r.UpdatedAt)
	if err != nil {
		return postgres.Classify("update resident", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) Delete(ctx context.Context, residentID id.ResidentID) error {
	db, _ := s.execer(ctx)
	res, err := db.ExecContext(ctx, `DELETE FROM residents WHERE id = $1`, int64(residentID))
	if err != nil {
		return postgres.Classify("delete resident", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

// UpdateStatus is a compare-and-swap on current_status. When no row matches,
// a follow-up existence check tells ErrNotFound apart from ErrInvalidState.
func (s *PostgresStore) UpdateStatus(ctx context.Context, residentID id.ResidentID, expected, next models.Status, movementID id.MovementID, now time.Time) error {
	query := `
		UPDATE residents
		SET current_status = $3, last_movement_id = $4, updated_at = $5
		WHERE id = $1 AND current_status = $2
	`
	db, _ := s.execer(ctx)
	res, err := db.ExecContext(ctx, query, int64(residentID), expected, next, int64(movementID), now)
	if err != nil {
		return postgres.Classify("update resident status", err)
	}
	if err := requireOneRow(res, sentinel.ErrInvalidState); err == nil {
		return nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM residents WHERE id = $1)`, int64(residentID)).Scan(&exists); err != nil {
		return postgres.Classify("check resident", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (*models.Resident, error) {
	db, _ := s.execer(ctx)
	r, err := scanResident(db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, postgres.Classify(op, err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResident(row rowScanner) (*models.Resident, error) {
	var (
		r       models.Resident
		rawID   int64
		lastMov sql.NullInt64
	)
	if err := row.Scan(&rawID, &r.RegisterNo, &r.Name, &r.RoomNo, &r.Course, &r.CurrentStatus, &lastMov, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = id.ResidentID(rawID)
	if lastMov.Valid {
		last := id.MovementID(lastMov.Int64)
		r.LastMovementID = &last
	}
	return &r, nil
}

func requireOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", sentinel.ErrUnavailable, err)
	}
	if n == 0 {
		return none
	}
	return nil
}
