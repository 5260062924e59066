package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hostelgate/pkg/domain"
	"hostelgate/pkg/requestcontext"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*JWTClaims, error) { return s.claims, s.err }

type stubRevocations struct {
	revoked bool
	err     error
}

func (s stubRevocations) IsTokenRevoked(context.Context, string) (bool, error) {
	return s.revoked, s.err
}

type recordingObserver struct {
	route  string
	status int
}

func (o *recordingObserver) ObserveEndpointLatency(_ string, route string, status int, _ time.Time) {
	o.route = route
	o.status = status
}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestRequestID(t *testing.T) {
	t.Run("mints an id when absent", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("reuses an inbound id", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "req-42", seen)
	})
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	claims := &JWTClaims{Username: "ravi", Role: "resident", ResidentID: id.ResidentID(7), JTI: "jti-1"}

	tests := []struct {
		name        string
		header      string
		validator   stubValidator
		revocations TokenRevocationChecker
		wantStatus  int
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer x", validator: stubValidator{err: errors.New("bad")}, wantStatus: http.StatusUnauthorized},
		{name: "revoked token", header: "Bearer x", validator: stubValidator{claims: claims}, revocations: stubRevocations{revoked: true}, wantStatus: http.StatusUnauthorized},
		{name: "revocation backend down", header: "Bearer x", validator: stubValidator{claims: claims}, revocations: stubRevocations{err: errors.New("down")}, wantStatus: http.StatusServiceUnavailable},
		{name: "valid token", header: "Bearer x", validator: stubValidator{claims: claims}, revocations: stubRevocations{}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got requestcontext.Principal
			h := RequireAuth(tt.validator, tt.revocations, discardLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetPrincipal(r.Context())
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, id.ResidentID(7), got.ResidentID)
				assert.Equal(t, "jti-1", got.TokenID)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(discardLogger, "admin", "watchman")(http.HandlerFunc(okHandler))

	for role, want := range map[string]int{
		"admin":    http.StatusOK,
		"watchman": http.StatusOK,
		"resident": http.StatusForbidden,
		"":         http.StatusUnauthorized,
	} {
		t.Run("role "+role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if role != "" {
				req = req.WithContext(requestcontext.WithActor(req.Context(), requestcontext.Principal{Role: role}))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, want, rec.Code)
		})
	}
}

func TestLatencyMiddleware(t *testing.T) {
	obs := &recordingObserver{}
	h := LatencyMiddleware(obs)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/logs", nil))

	assert.Equal(t, "/logs", obs.route)
	assert.Equal(t, http.StatusAccepted, obs.status)
}

func TestClientIPFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", ClientIPFromRequest(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:5555"
	assert.Equal(t, "192.168.1.9", ClientIPFromRequest(req))
}
