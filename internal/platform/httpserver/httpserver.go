// Package httpserver builds the gate's listening server.
package httpserver

import (
	"net/http"
	"time"
)

// handlerBudget is the longest a gate route may run before its chi Timeout
// middleware answers 504.
const handlerBudget = 10 * time.Second

// New returns a server for the gate API. WriteTimeout stays above
// handlerBudget so a timed-out movement still gets its 504 body written.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      handlerBudget + 20*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
