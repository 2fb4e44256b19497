package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project.
// WriteTimeout leaves room for a submission that runs to its own deadline.
func New(addr string, handler http.Handler, submitTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      submitTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
