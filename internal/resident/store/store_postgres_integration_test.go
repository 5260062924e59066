//go:build integration

package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hostelgate/internal/resident/models"
	"hostelgate/internal/resident/store"
	id "hostelgate/pkg/domain"
	"hostelgate/pkg/platform/sentinel"
	txcontext "hostelgate/pkg/platform/tx"
	"hostelgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "residents"))
}

func (s *PostgresStoreSuite) create(registerNo string) *models.Resident {
	r, err := models.NewResident(registerNo, "Resident "+registerNo, "A-1", "CS", time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), r))
	return r
}

func (s *PostgresStoreSuite) TestCreateAssignsIncreasingIDs() {
	first := s.create("REG001")
	second := s.create("REG002")

	s.Equal(id.ResidentID(1), first.ID)
	s.Equal(id.ResidentID(2), second.ID)

	found, err := s.store.FindByRegisterNo(context.Background(), "REG002")
	s.Require().NoError(err)
	s.Equal(second.ID, found.ID)
	s.Equal(models.StatusInFacility, found.CurrentStatus)
	s.Nil(found.LastMovementID)
}

// TestConcurrentDuplicateRegisterNo verifies that concurrent creates with one
// register number result in exactly one success.
func (s *PostgresStoreSuite) TestConcurrentDuplicateRegisterNo() {
	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _ := models.NewResident("REG777", "Asha", "", "", time.Now())
			err := s.store.Create(context.Background(), r)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestUpdateLeavesStatusAlone() {
	ctx := context.Background()
	r := s.create("REG001")
	s.Require().NoError(s.store.UpdateStatus(ctx, r.ID, models.StatusInFacility, models.StatusOutside, 4, time.Now()))

	r.Name = "Renamed"
	r.CurrentStatus = models.StatusInFacility
	s.Require().NoError(s.store.Update(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", found.Name)
	s.Equal(models.StatusOutside, found.CurrentStatus)
	s.Require().NotNil(found.LastMovementID)
	s.Equal(id.MovementID(4), *found.LastMovementID)
}

func (s *PostgresStoreSuite) TestUpdateToTakenRegisterNo() {
	s.create("REG001")
	second := s.create("REG002")

	second.RegisterNo = "REG001"
	err := s.store.Update(context.Background(), second)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdateStatusCompareAndSwap() {
	ctx := context.Background()
	r := s.create("REG001")

	s.Run("stale expectation is an invalid state", func() {
		err := s.store.UpdateStatus(ctx, r.ID, models.StatusOutside, models.StatusInFacility, 1, time.Now())
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("missing resident is not found", func() {
		err := s.store.UpdateStatus(ctx, 999, models.StatusInFacility, models.StatusOutside, 1, time.Now())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rolled back transaction leaves the status", func() {
		err := txcontext.Run(ctx, s.postgres.DB, nil, func(txCtx context.Context) error {
			if err := s.store.UpdateStatus(txCtx, r.ID, models.StatusInFacility, models.StatusOutside, 1, time.Now()); err != nil {
				return err
			}
			return errors.New("abort")
		})
		s.Require().Error(err)

		found, err := s.store.FindByID(ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInFacility, found.CurrentStatus)
	})
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		s.create(fmt.Sprintf("REG%03d", i))
	}
	s.Require().NoError(s.store.UpdateStatus(ctx, 2, models.StatusInFacility, models.StatusOutside, 1, time.Now()))
	s.Require().NoError(s.store.Delete(ctx, 3))
	s.ErrorIs(s.store.Delete(ctx, 3), sentinel.ErrNotFound)

	residents, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(residents, 2)
	s.Equal(models.StatusInFacility, residents[0].CurrentStatus)
	s.Equal(models.StatusOutside, residents[1].CurrentStatus)
}
