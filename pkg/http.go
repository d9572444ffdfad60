package pkg

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router serves health, the websocket transport and metrics.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/health", s.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/socket", s.SocketHandler)
	router.Handle("/metrics", promhttp.Handler())

	return promhttp.InstrumentHandlerInFlight(RelayServerInFlightGauge,
		promhttp.InstrumentHandlerCounter(RelayServerRequestsCounter, router))
}
