// Package httpserver holds the HTTP server defaults for the grunnlag API.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	// oppdater-grunnlag waits on the registry for every participant.
	writeTimeout = 60 * time.Second
	idleTimeout  = 120 * time.Second
)

// New builds the API server. Errors from net/http itself, such as TLS
// handshakes or panics in handlers, go to logger at error level.
func New(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
