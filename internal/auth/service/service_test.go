package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ResidentFinder,AuditPublisher

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"hostelgate/internal/auth/models"
	"hostelgate/internal/auth/service/mocks"
	"hostelgate/internal/auth/store/revocation"
	jwttoken "hostelgate/internal/jwt_token"
	"hostelgate/internal/platform/config"
	"hostelgate/internal/platform/metrics"
	residentModel "hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/audit"
	"hostelgate/pkg/platform/sentinel"
	"hostelgate/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl               *gomock.Controller
	mockResidents      *mocks.MockResidentFinder
	mockAuditPublisher *mocks.MockAuditPublisher
	jwt                *jwttoken.JWTService
	revocations        *revocation.InMemoryTRL
	service            *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) hash(plain string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	s.Require().NoError(err)
	return string(h)
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockResidents = mocks.NewMockResidentFinder(s.ctrl)
	s.mockAuditPublisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.jwt = jwttoken.NewJWTService("test-key", "hostelgate")
	s.revocations = revocation.NewInMemoryTRL()

	accounts := config.Accounts{
		Admin: config.Account{Username: "admin", PasswordHash: s.hash("1234"), Name: "Warden"},
		Watchmen: []config.Account{
			{Username: "north", PasswordHash: s.hash("gate-n"), Name: "North Watchman", Location: "North Gate"},
			{Username: "south", PasswordHash: s.hash("gate-s"), Name: "South Watchman", Location: "South Gate"},
		},
	}
	s.service = New(accounts, s.mockResidents, s.jwt, s.revocations,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.NewWithRegistry(prometheus.NewRegistry())),
		WithAuditPublisher(s.mockAuditPublisher),
		WithTokenTTL(time.Hour),
	)
}

func (s *ServiceSuite) TestStaffLogin() {
	ctx := context.Background()

	s.Run("admin with correct password gets an admin token", func() {
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.StaffLogin(ctx, models.RoleAdmin, &models.LoginRequest{Username: " admin ", Password: "1234"})
		s.Require().NoError(err)
		s.Equal(models.RoleAdmin, result.Role)
		s.Equal("Bearer", result.TokenType)
		s.Require().NotNil(result.Staff)
		s.Equal("Warden", result.Staff.Name)

		claims, err := s.jwt.ValidateToken(result.AccessToken)
		s.Require().NoError(err)
		s.Equal("admin", claims.Role)
		s.Equal("admin", claims.Username)
	})

	s.Run("watchman login returns the gate location", func() {
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.StaffLogin(ctx, models.RoleWatchman, &models.LoginRequest{Username: "south", Password: "gate-s"})
		s.Require().NoError(err)
		s.Equal(models.RoleWatchman, result.Role)
		s.Equal("South Gate", result.Staff.Location)
	})

	s.Run("wrong password is unauthorized and audited", func() {
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, event audit.Event) error {
			s.Equal(string(audit.EventLoginFailed), event.Action)
			s.Equal("north", event.ActorID)
			return nil
		})

		_, err := s.service.StaffLogin(ctx, models.RoleWatchman, &models.LoginRequest{Username: "north", Password: "gate-s"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("watchman credentials do not open the admin login", func() {
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.StaffLogin(ctx, models.RoleAdmin, &models.LoginRequest{Username: "north", Password: "gate-n"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing fields are a validation error", func() {
		_, err := s.service.StaffLogin(ctx, models.RoleAdmin, &models.LoginRequest{Username: "admin"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestResidentLogin() {
	ctx := context.Background()
	resident := &residentModel.Resident{ID: 7, RegisterNo: "REG007", Name: "Asha Rao", CurrentStatus: residentModel.StatusInFacility}

	s.Run("name match is case-insensitive", func() {
		s.mockResidents.EXPECT().FindByRegisterNo(gomock.Any(), "REG007").Return(resident, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		result, err := s.service.ResidentLogin(ctx, &models.ResidentLoginRequest{Name: "asha rao", RegisterNo: "REG007"})
		s.Require().NoError(err)
		s.Equal(models.RoleResident, result.Role)
		s.Equal(id.ResidentID(7), result.ResidentID)

		claims, err := s.jwt.ValidateToken(result.AccessToken)
		s.Require().NoError(err)
		s.Equal(id.ResidentID(7), claims.ResidentID)
	})

	s.Run("wrong name is unauthorized", func() {
		s.mockResidents.EXPECT().FindByRegisterNo(gomock.Any(), "REG007").Return(resident, nil)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.ResidentLogin(ctx, &models.ResidentLoginRequest{Name: "Someone Else", RegisterNo: "REG007"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown register number is unauthorized", func() {
		s.mockResidents.EXPECT().FindByRegisterNo(gomock.Any(), "REG999").Return(nil, sentinel.ErrNotFound)
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.ResidentLogin(ctx, &models.ResidentLoginRequest{Name: "Asha Rao", RegisterNo: "REG999"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("directory failure is unavailable", func() {
		s.mockResidents.EXPECT().FindByRegisterNo(gomock.Any(), "REG007").Return(nil, assert.AnError)

		_, err := s.service.ResidentLogin(ctx, &models.ResidentLoginRequest{Name: "Asha Rao", RegisterNo: "REG007"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("missing register number is a validation error", func() {
		_, err := s.service.ResidentLogin(ctx, &models.ResidentLoginRequest{Name: "Asha Rao"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestLogout() {
	ctx := context.Background()

	s.Run("logout revokes the token", func() {
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		result, err := s.service.StaffLogin(ctx, models.RoleAdmin, &models.LoginRequest{Username: "admin", Password: "1234"})
		s.Require().NoError(err)
		claims, err := s.jwt.ValidateToken(result.AccessToken)
		s.Require().NoError(err)

		principal := requestcontext.Principal{
			Username:  claims.Username,
			Role:      claims.Role,
			TokenID:   claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		}
		s.Require().NoError(s.service.Logout(ctx, principal))

		revoked, err := s.service.IsTokenRevoked(ctx, claims.ID)
		s.Require().NoError(err)
		s.True(revoked)
	})

	s.Run("already expired token needs no revocation", func() {
		s.mockAuditPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		principal := requestcontext.Principal{
			Username:  "north",
			Role:      "watchman",
			TokenID:   "expired-jti",
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		s.Require().NoError(s.service.Logout(ctx, principal))

		revoked, err := s.service.IsTokenRevoked(ctx, "expired-jti")
		s.Require().NoError(err)
		s.False(revoked)
	})

	s.Run("principal without token id is unauthorized", func() {
		err := s.service.Logout(ctx, requestcontext.Principal{Username: "admin", Role: "admin"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
