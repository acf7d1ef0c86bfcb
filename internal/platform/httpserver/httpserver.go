package httpserver

import (
	"net/http"
	"time"
)

// New builds the service's HTTP server. The write timeout sits just above
// the 30 second request deadline the middleware enforces, so a slow handler
// is cancelled through its context before the connection is cut.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
