package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hostelgate/internal/auth/models"
	jwttoken "hostelgate/internal/jwt_token"
	"hostelgate/internal/platform/config"
	"hostelgate/internal/platform/device"
	"hostelgate/internal/platform/metrics"
	residentModel "hostelgate/internal/resident/models"
	id "hostelgate/pkg/domain"
	dErrors "hostelgate/pkg/domain-errors"
	"hostelgate/pkg/platform/audit"
	"hostelgate/pkg/platform/sentinel"
	"hostelgate/pkg/requestcontext"
)

type ResidentFinder interface {
	FindByRegisterNo(ctx context.Context, registerNo string) (*residentModel.Resident, error)
}

type TokenIssuer interface {
	GenerateAccessToken(username, role string, residentID id.ResidentID, expiresIn time.Duration) (string, *jwttoken.Claims, error)
}

// RevocationList remembers tokens ended by logout until they would have
// expired anyway.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service checks credentials against the configured staff accounts and the
// resident directory, and issues role tokens.
type Service struct {
	accounts       config.Accounts
	residents      ResidentFinder
	tokens         TokenIssuer
	revocations    RevocationList
	tokenTTL       time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func New(accounts config.Accounts, residents ResidentFinder, tokens TokenIssuer, revocations RevocationList, opts ...Option) *Service {
	s := &Service{
		accounts:    accounts,
		residents:   residents,
		tokens:      tokens,
		revocations: revocations,
		tokenTTL:    12 * time.Hour,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

// StaffLogin verifies an admin or watchman password.
func (s *Service) StaffLogin(ctx context.Context, role models.Role, req *models.LoginRequest) (*models.LoginResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, ok := s.findAccount(role, req.Username)
	if !ok || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		s.loginFailed(ctx, role, req.Username)
		return nil, errInvalidCredentials
	}

	result, err := s.issue(ctx, account.Username, role, 0)
	if err != nil {
		return nil, err
	}
	result.Staff = &models.StaffProfile{
		Username: account.Username,
		Name:     account.Name,
		Location: account.Location,
	}
	return result, nil
}

func (s *Service) findAccount(role models.Role, username string) (config.Account, bool) {
	switch role {
	case models.RoleAdmin:
		if usernameMatches(s.accounts.Admin.Username, username) {
			return s.accounts.Admin, true
		}
	case models.RoleWatchman:
		for _, w := range s.accounts.Watchmen {
			if usernameMatches(w.Username, username) {
				return w, true
			}
		}
	}
	return config.Account{}, false
}

func usernameMatches(configured, given string) bool {
	return configured != "" && subtle.ConstantTimeCompare([]byte(configured), []byte(given)) == 1
}

// ResidentLogin identifies a resident by register number and a
// case-insensitive name match.
func (s *Service) ResidentLogin(ctx context.Context, req *models.ResidentLoginRequest) (*models.LoginResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resident, err := s.residents.FindByRegisterNo(ctx, req.RegisterNo)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailed(ctx, models.RoleResident, req.RegisterNo)
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to look up resident")
	}
	if !resident.MatchesLogin(req.Name, req.RegisterNo) {
		s.loginFailed(ctx, models.RoleResident, req.RegisterNo)
		return nil, errInvalidCredentials
	}

	result, err := s.issue(ctx, resident.RegisterNo, models.RoleResident, resident.ID)
	if err != nil {
		return nil, err
	}
	result.ResidentID = resident.ID
	result.Resident = resident
	return result, nil
}

func (s *Service) issue(ctx context.Context, username string, role models.Role, residentID id.ResidentID) (*models.LoginResult, error) {
	token, claims, err := s.tokens.GenerateAccessToken(username, role.String(), residentID, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "login succeeded",
		"role", role,
		"username", username,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementLoginAttempt(role.String(), "success")
	}
	s.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventLoginSucceeded),
		ActorID:    username,
		ResidentID: residentID,
		Decision:   "granted",
	})

	return &models.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		Role:        role,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, role models.Role, username string) {
	s.logger.WarnContext(ctx, "login failed",
		"role", role,
		"username", username,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementLoginAttempt(role.String(), "failure")
	}
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventLoginFailed),
		ActorID:  username,
		Decision: "denied",
		Reason:   "invalid_credentials",
	})
}

// Logout revokes the caller's token for the rest of its lifetime. Tokens
// that have already expired need nothing.
func (s *Service) Logout(ctx context.Context, principal requestcontext.Principal) error {
	if principal.TokenID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "missing token id")
	}
	ttl := principal.ExpiresAt.Sub(requestcontext.Now(ctx))
	if ttl > 0 {
		if err := s.revocations.RevokeToken(ctx, principal.TokenID, ttl); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token")
		}
	}

	s.logger.InfoContext(ctx, "logged out",
		"role", principal.Role,
		"username", principal.Username,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.Event{
		Action:     string(audit.EventLoggedOut),
		ActorID:    principal.Username,
		ResidentID: principal.ResidentID,
	})
	return nil
}

// IsTokenRevoked reports whether logout ended the token with jti.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.revocations.IsRevoked(ctx, jti)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.Device = device.ParseUserAgent(requestcontext.UserAgent(ctx))
	if err := s.auditPublisher.Emit(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}
