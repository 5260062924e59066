package testutil

import (
	"net/http"
	"time"

	id "hostelgate/pkg/domain"
	"hostelgate/pkg/requestcontext"
)

// WithPrincipal stores p in the request context, as RequireAuth would.
func WithPrincipal(req *http.Request, p requestcontext.Principal) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), p))
}

// AsAdmin marks the request as made by the admin.
func AsAdmin(req *http.Request) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{Username: "admin", Role: "admin", TokenID: "admin-jti"})
}

// AsWatchman marks the request as made by a watchman.
func AsWatchman(req *http.Request, username string) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{Username: username, Role: "watchman", TokenID: username + "-jti"})
}

// AsResident marks the request as made by the resident residentID.
func AsResident(req *http.Request, residentID id.ResidentID) *http.Request {
	return WithPrincipal(req, requestcontext.Principal{
		Username:   "resident-" + residentID.String(),
		Role:       "resident",
		ResidentID: residentID,
		TokenID:    "resident-" + residentID.String() + "-jti",
	})
}

// WithRequestTime pins the request clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
