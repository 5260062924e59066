package service

import (
	"context"
	"strconv"
	"time"

	residentModel "hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
)

// Stores is what a transaction hands to the accept sequence. Implementations
// may return stores bound to a database transaction or journaling wrappers.
type Stores struct {
	Directory Directory
	Ledger    Ledger
}

// MovementTx provides a transactional boundary for the accept sequence,
// serialized per resident. fn must perform its ledger append last; an error
// from fn undoes every directory write made through the handed stores.
type MovementTx interface {
	RunInTx(ctx context.Context, residentID id.ResidentID, fn func(ctx context.Context, stores Stores) error) error
}

// numResidentShards spreads residents over independent locks so unrelated
// residents rarely wait on each other.
const numResidentShards = 128

// defaultTxTimeout bounds a transaction whose context has no deadline.
const defaultTxTimeout = 5 * time.Second

// InMemoryTx serializes the accept sequence with sharded channel locks and
// undoes status writes when fn fails. Channel locks let waiters give up when
// their context ends.
type InMemoryTx struct {
	shards  [numResidentShards]chan struct{}
	stores  Stores
	timeout time.Duration
}

// NewInMemoryTx builds a transaction runner over in-process stores. A zero
// timeout uses the default.
func NewInMemoryTx(directory Directory, ledger Ledger, timeout time.Duration) *InMemoryTx {
	t := &InMemoryTx{stores: Stores{Directory: directory, Ledger: ledger}, timeout: timeout}
	for i := range t.shards {
		t.shards[i] = make(chan struct{}, 1)
	}
	return t
}

func (t *InMemoryTx) RunInTx(ctx context.Context, residentID id.ResidentID, fn func(ctx context.Context, stores Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.shards[shardFor(residentID)]
	select {
	case shard <- struct{}{}:
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeUnavailable, "timed out waiting for resident lock")
	}
	defer func() { <-shard }()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	journal := &journalDirectory{Directory: t.stores.Directory}
	if err := fn(ctx, Stores{Directory: journal, Ledger: t.stores.Ledger}); err != nil {
		journal.rollback(context.WithoutCancel(ctx))
		return err
	}
	return nil
}

// statusRestorer is implemented by in-memory directories that can undo a
// status write.
type statusRestorer interface {
	RestoreStatus(ctx context.Context, residentID id.ResidentID, status residentModel.Status, lastMovementID *id.MovementID, updatedAt time.Time) error
}

type statusSnapshot struct {
	residentID     id.ResidentID
	status         residentModel.Status
	lastMovementID *id.MovementID
	updatedAt      time.Time
}

// journalDirectory records the prior state of every successful status write
// so the transaction can put it back.
type journalDirectory struct {
	Directory
	undo []statusSnapshot
}

func (j *journalDirectory) UpdateStatus(ctx context.Context, residentID id.ResidentID, expected, next residentModel.Status, movementID id.MovementID, now time.Time) error {
	if _, ok := j.Directory.(statusRestorer); !ok {
		return j.Directory.UpdateStatus(ctx, residentID, expected, next, movementID, now)
	}
	prev, err := j.Directory.FindByID(ctx, residentID)
	if err != nil {
		return err
	}
	if err := j.Directory.UpdateStatus(ctx, residentID, expected, next, movementID, now); err != nil {
		return err
	}
	j.undo = append(j.undo, statusSnapshot{
		residentID:     residentID,
		status:         prev.CurrentStatus,
		lastMovementID: prev.LastMovementID,
		updatedAt:      prev.UpdatedAt,
	})
	return nil
}

func (j *journalDirectory) rollback(ctx context.Context) {
	restorer, ok := j.Directory.(statusRestorer)
	if !ok {
		return
	}
	for i := len(j.undo) - 1; i >= 0; i-- {
		snap := j.undo[i]
		_ = restorer.RestoreStatus(ctx, snap.residentID, snap.status, snap.lastMovementID, snap.updatedAt)
	}
	j.undo = nil
}

func shardFor(residentID id.ResidentID) int {
	return int(hashString(strconv.FormatInt(int64(residentID), 10)) % numResidentShards)
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
