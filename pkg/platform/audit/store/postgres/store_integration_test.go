//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "hostelgate/pkg/domain"
	audit "hostelgate/pkg/platform/audit"
	auditpostgres "hostelgate/pkg/platform/audit/store/postgres"
	"hostelgate/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpostgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = auditpostgres.New(s.postgres.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *AuditStoreSuite) event(residentID id.ResidentID, action audit.AuditEvent, at time.Time) audit.Event {
	return audit.Event{
		ID:         uuid.NewString(),
		Category:   action.Category(),
		Timestamp:  at,
		ResidentID: residentID,
		Action:     string(action),
		ActorID:    "north",
		RequestID:  "req-1",
		Device:     "Firefox on Linux",
	}
}

func (s *AuditStoreSuite) TestAppendAndListByResident() {
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	recorded := s.event(7, audit.EventMovementRecorded, base.Add(time.Minute))
	recorded.MovementID = 3
	recorded.Kind = "EXIT"
	recorded.Decision = "accepted"
	s.Require().NoError(s.store.Append(ctx, recorded))
	s.Require().NoError(s.store.Append(ctx, s.event(7, audit.EventResidentCreated, base)))
	s.Require().NoError(s.store.Append(ctx, s.event(8, audit.EventResidentCreated, base)))

	events, err := s.store.ListByResident(ctx, 7)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventResidentCreated), events[0].Action)
	s.Equal(id.MovementID(0), events[0].MovementID)

	got := events[1]
	s.Equal(id.MovementID(3), got.MovementID)
	s.Equal("EXIT", got.Kind)
	s.Equal(audit.CategoryCompliance, got.Category)
	s.Equal("Firefox on Linux", got.Device)
	s.True(got.Timestamp.Equal(recorded.Timestamp))
}

func (s *AuditStoreSuite) TestLoginEventsHaveNoResident() {
	ctx := context.Background()
	failed := s.event(0, audit.EventLoginFailed, time.Now())
	s.Require().NoError(s.store.Append(ctx, failed))

	recent, err := s.store.ListRecent(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(id.ResidentID(0), recent[0].ResidentID)
	s.Equal(audit.CategorySecurity, recent[0].Category)
}
