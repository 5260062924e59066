package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"hostelgate/internal/movement/models"
	id "hostelgate/pkg/domain"
	"hostelgate/pkg/platform/sentinel"
)

// InMemoryLedger is an append-only movement log kept in id order.
type InMemoryLedger struct {
	seq       atomic.Int64
	mu        sync.RWMutex
	movements []models.Movement
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{}
}

// NextID reserves the next movement id. Reserved ids are never handed out
// again, even if the caller never appends.
func (l *InMemoryLedger) NextID(_ context.Context) (id.MovementID, error) {
	return id.MovementID(l.seq.Add(1)), nil
}

// Append inserts m at its id position. An id already present returns
// sentinel.ErrConflict.
func (l *InMemoryLedger) Append(_ context.Context, m *models.Movement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, found := slices.BinarySearchFunc(l.movements, m.ID, func(e models.Movement, target id.MovementID) int {
		return cmp.Compare(e.ID, target)
	})
	if found {
		return sentinel.ErrConflict
	}
	l.movements = slices.Insert(l.movements, i, *m)
	return nil
}

// Scan returns copies of the movements passing filter, ascending by id.
func (l *InMemoryLedger) Scan(_ context.Context, filter models.ScanFilter) ([]*models.Movement, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*models.Movement, 0, len(l.movements))
	for i := range l.movements {
		if !filter.Matches(&l.movements[i]) {
			continue
		}
		m := l.movements[i]
		out = append(out, &m)
	}
	return out, nil
}
