package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eco2-team/backend/domains/platform-authz/internal/constants"
)

// OpsHandler serves /metrics, /health and /ready on the metrics port.
func OpsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(constants.PathMetrics, promhttp.Handler())
	mux.HandleFunc(constants.PathHealth, okHandler)
	mux.HandleFunc(constants.PathReady, okHandler)
	return mux
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(constants.HealthOK))
}

// NewHTTPServer returns an http.Server for handler listening on port.
func NewHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: constants.ReadHeaderTimeout,
	}
}
