package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hostelgate/internal/movement/models"
	id "hostelgate/pkg/domain"
	"hostelgate/pkg/platform/sentinel"
)

type LedgerSuite struct {
	suite.Suite
	ledger *InMemoryLedger
	ctx    context.Context
	base   time.Time
}

func (s *LedgerSuite) SetupTest() {
	s.ledger = NewInMemoryLedger()
	s.ctx = context.Background()
	s.base = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) appendNew(resident int64, kind models.Kind, offset time.Duration) *models.Movement {
	movementID, err := s.ledger.NextID(s.ctx)
	s.Require().NoError(err)
	m := &models.Movement{
		ID:         movementID,
		ResidentID: id.ResidentID(resident),
		Kind:       kind,
		Timestamp:  s.base.Add(offset),
		Status:     kind.DefaultStatus(),
	}
	s.Require().NoError(s.ledger.Append(s.ctx, m))
	return m
}

func (s *LedgerSuite) TestNextIDNeverReused() {
	first, err := s.ledger.NextID(s.ctx)
	s.Require().NoError(err)
	// reserved but never appended
	second, err := s.ledger.NextID(s.ctx)
	s.Require().NoError(err)
	s.Greater(int64(second), int64(first))

	m := s.appendNew(1, models.KindExit, 0)
	s.Greater(int64(m.ID), int64(second))
}

func (s *LedgerSuite) TestAppendRejectsDuplicateID() {
	m := s.appendNew(1, models.KindExit, 0)
	dup := *m
	dup.ResidentID = 2
	s.ErrorIs(s.ledger.Append(s.ctx, &dup), sentinel.ErrConflict)

	all, err := s.ledger.Scan(s.ctx, models.ScanFilter{})
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *LedgerSuite) TestScanOrdersByIDEvenWhenAppendedOutOfOrder() {
	a, err := s.ledger.NextID(s.ctx)
	s.Require().NoError(err)
	b, err := s.ledger.NextID(s.ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.ledger.Append(s.ctx, &models.Movement{ID: b, ResidentID: 2, Kind: models.KindExit, Timestamp: s.base}))
	s.Require().NoError(s.ledger.Append(s.ctx, &models.Movement{ID: a, ResidentID: 1, Kind: models.KindExit, Timestamp: s.base}))

	all, err := s.ledger.Scan(s.ctx, models.ScanFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(a, all[0].ID)
	s.Equal(b, all[1].ID)
}

func (s *LedgerSuite) TestScanFilters() {
	s.appendNew(1, models.KindExit, 0)
	s.appendNew(2, models.KindExit, time.Hour)
	s.appendNew(1, models.KindEnter, 2*time.Hour)

	byResident, err := s.ledger.Scan(s.ctx, models.ScanFilter{ResidentIDs: []id.ResidentID{1}})
	s.Require().NoError(err)
	s.Len(byResident, 2)

	since := s.base.Add(time.Hour)
	until := s.base.Add(2 * time.Hour)
	window, err := s.ledger.Scan(s.ctx, models.ScanFilter{Since: &since, Until: &until})
	s.Require().NoError(err)
	s.Require().Len(window, 1)
	s.Equal(id.ResidentID(2), window[0].ResidentID)
}

func (s *LedgerSuite) TestScanReturnsCopies() {
	s.appendNew(1, models.KindExit, 0)
	all, err := s.ledger.Scan(s.ctx, models.ScanFilter{})
	s.Require().NoError(err)
	all[0].Status = "tampered"

	again, err := s.ledger.Scan(s.ctx, models.ScanFilter{})
	s.Require().NoError(err)
	s.Equal("Exited", again[0].Status)
}

func (s *LedgerSuite) TestConcurrentReservationsAreUnique() {
	const workers = 64
	var wg sync.WaitGroup
	ids := make(chan id.MovementID, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			movementID, err := s.ledger.NextID(s.ctx)
			s.NoError(err)
			ids <- movementID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[id.MovementID]bool)
	for movementID := range ids {
		s.False(seen[movementID], "id %d handed out twice", movementID)
		seen[movementID] = true
	}
	s.Len(seen, workers)
}
