package pkg

import "github.com/prometheus/client_golang/prometheus"

var (
	RelayServerClientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_server_clients",
		Help: "A gauge of authenticated clients in the registry.",
	})

	RelayServerConnectionsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "relay_server_connections",
		Help: "A gauge of open connections by transport.",
	}, []string{"transport"})

	RelayServerInFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_server_in_flight_requests",
		Help: "A gauge of HTTP requests being handled by the relay server.",
	})

	RelayServerRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_server_requests_total",
		Help: "A counter for HTTP requests to the relay server.",
	}, []string{"code", "method"})

	RelayServerAuthCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_server_auth_total",
		Help: "A counter of authentication attempts by result.",
	}, []string{"result"})

	RelayServerBroadcastsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_server_broadcasts_total",
		Help: "A counter of broadcasts performed.",
	})

	RelayServerDeliveriesCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_server_deliveries_total",
		Help: "A counter of messages written to recipients.",
	})

	RelayServerDeliveryFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_server_delivery_failures_total",
		Help: "A counter of failed writes to recipients.",
	})

	RelayServerDisplacedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_server_displaced_sessions_total",
		Help: "A counter of sessions displaced by a newer login.",
	})
)

func init() {
	prometheus.MustRegister(
		RelayServerClientsGauge,
		RelayServerConnectionsGauge,
		RelayServerInFlightGauge,
		RelayServerRequestsCounter,
		RelayServerAuthCounter,
		RelayServerBroadcastsCounter,
		RelayServerDeliveriesCounter,
		RelayServerDeliveryFailuresCounter,
		RelayServerDisplacedCounter,
	)
}
