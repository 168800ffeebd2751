package marketplace

import "github.com/prometheus/client_golang/prometheus"

var (
	MarketplaceRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_requests_total",
			Help: "Marketplace searches by mall and outcome (success, failure, rejected).",
		},
		[]string{"mall", "outcome"},
	)

	MarketplaceBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketplace_circuit_breaker_state",
			Help: "Circuit breaker state per mall (0 closed, 1 half-open, 2 open).",
		},
		[]string{"mall"},
	)
)

func init() {
	prometheus.MustRegister(MarketplaceRequestsTotal, MarketplaceBreakerState)
}
