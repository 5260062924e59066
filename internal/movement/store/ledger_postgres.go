package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"hostelgate/internal/movement/models"
	"hostelgate/internal/platform/postgres"
	id "hostelgate/pkg/domain"
	txcontext "hostelgate/pkg/platform/tx"
)

// PostgresLedger persists movements in PostgreSQL. Ids come from the
// movement_id_seq sequence, which never rolls back.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) execer(ctx context.Context) postgres.Executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return l.db
}

func (l *PostgresLedger) NextID(ctx context.Context) (id.MovementID, error) {
	var next int64
	if err := l.execer(ctx).QueryRowContext(ctx, `SELECT nextval('movement_id_seq')`).Scan(&next); err != nil {
		return 0, postgres.Classify("reserve movement id", err)
	}
	return id.MovementID(next), nil
}

// Append inserts m. A duplicate id surfaces as sentinel.ErrConflict.
func (l *PostgresLedger) Append(ctx context.Context, m *models.Movement) error {
	query := `
		INSERT INTO movements (id, resident_id, kind, occurred_at, status, remarks)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := l.execer(ctx).ExecContext(ctx, query,
		int64(m.ID), int64(m.ResidentID), string(m.Kind), m.Timestamp, m.Status, m.Remarks,
	)
	if err != nil {
		return postgres.Classify("append movement", err)
	}
	return nil
}

func (l *PostgresLedger) Scan(ctx context.Context, filter models.ScanFilter) ([]*models.Movement, error) {
	var (
		conds []string
		args  []any
	)
	if len(filter.ResidentIDs) > 0 {
		ids := make([]int64, len(filter.ResidentIDs))
		for i, rid := range filter.ResidentIDs {
			ids[i] = int64(rid)
		}
		args = append(args, pq.Array(ids))
		conds = append(conds, fmt.Sprintf("resident_id = ANY($%d)", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if filter.Until != nil {
		args = append(args, *filter.Until)
		conds = append(conds, fmt.Sprintf("occurred_at < $%d", len(args)))
	}

	query := `SELECT id, resident_id, kind, occurred_at, status, remarks FROM movements`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id ASC`

	rows, err := l.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, postgres.Classify("scan movements", err)
	}
	defer rows.Close()

	var out []*models.Movement
	for rows.Next() {
		var (
			m          models.Movement
			movementID int64
			residentID int64
			kind       string
		)
		if err := rows.Scan(&movementID, &residentID, &kind, &m.Timestamp, &m.Status, &m.Remarks); err != nil {
			return nil, postgres.Classify("scan movement", err)
		}
		m.ID = id.MovementID(movementID)
		m.ResidentID = id.ResidentID(residentID)
		m.Kind = models.Kind(kind)
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("iterate movements", err)
	}
	return out, nil
}
