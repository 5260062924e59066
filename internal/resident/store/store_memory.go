package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	"hostelgate/pkg/platform/sentinel"
)

// InMemory is the resident directory used when no database is configured.
// Records are cloned on the way in and out so callers never share state with
// the store.
type InMemory struct {
	mu         sync.RWMutex
	nextID     id.ResidentID
	residents  map[id.ResidentID]*models.Resident
	byRegister map[string]id.ResidentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		residents:  make(map[id.ResidentID]*models.Resident),
		byRegister: make(map[string]id.ResidentID),
	}
}

// Create assigns the next ID and stores the resident. A taken register number
// returns sentinel.ErrConflict.
func (s *InMemory) Create(_ context.Context, r *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byRegister[r.RegisterNo]; taken {
		return sentinel.ErrConflict
	}
	s.nextID++
	r.ID = s.nextID
	s.residents[r.ID] = r.Clone()
	s.byRegister[r.RegisterNo] = r.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, residentID id.ResidentID) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.residents[residentID]; ok {
		return r.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByRegisterNo(_ context.Context, registerNo string) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if residentID, ok := s.byRegister[registerNo]; ok {
		return s.residents[residentID].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

// List returns every resident ordered by ID.
func (s *InMemory) List(_ context.Context) ([]*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Resident, 0, len(s.residents))
	for _, r := range s.residents {
		out = append(out, r.Clone())
	}
	slices.SortFunc(out, func(a, b *models.Resident) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Update persists profile fields. Status and last movement are owned by
// UpdateStatus and are left as stored.
func (s *InMemory) Update(_ context.Context, r *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.residents[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byRegister[r.RegisterNo]; taken && owner != r.ID {
		return sentinel.ErrConflict
	}
	delete(s.byRegister, existing.RegisterNo)
	updated := existing.Clone()
	updated.RegisterNo = r.RegisterNo
	updated.Name = r.Name
	updated.RoomNo = r.RoomNo
	updated.Course = r.Course
	updated.UpdatedAt = r.UpdatedAt
	s.residents[r.ID] = updated
	s.byRegister[updated.RegisterNo] = r.ID
	return nil
}

func (s *InMemory) Delete(_ context.Context, residentID id.ResidentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[residentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byRegister, r.RegisterNo)
	delete(s.residents, residentID)
	return nil
}

// UpdateStatus moves the cached status from expected to next and records the
// movement that caused it. It returns sentinel.ErrInvalidState when the stored
// status is no longer expected.
func (s *InMemory) UpdateStatus(_ context.Context, residentID id.ResidentID, expected, next models.Status, movementID id.MovementID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[residentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.CurrentStatus != expected {
		return sentinel.ErrInvalidState
	}
	r.CurrentStatus = next
	last := movementID
	r.LastMovementID = &last
	r.UpdatedAt = now
	return nil
}

// RestoreStatus writes status and last movement unconditionally. Memory
// transactions use it to undo UpdateStatus.
func (s *InMemory) RestoreStatus(_ context.Context, residentID id.ResidentID, status models.Status, lastMovementID *id.MovementID, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[residentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	r.CurrentStatus = status
	r.LastMovementID = nil
	if lastMovementID != nil {
		last := *lastMovementID
		r.LastMovementID = &last
	}
	r.UpdatedAt = updatedAt
	return nil
}
