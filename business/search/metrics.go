package search

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	FallbackRungTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_fallback_rung_total",
			Help: "Count of aggregated searches by the fallback rung that produced the answer.",
		},
		[]string{"rung"},
	)

	MarketplaceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_search_failures_total",
			Help: "Count of failed marketplace branches by mall and failure kind.",
		},
		[]string{"mall", "kind"},
	)

	RoundDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "search_round_duration_seconds",
			Help:    "Wall time of one marketplace fan-out round.",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_cache_hits_total",
			Help: "Count of fan-out rounds served from the result cache.",
		},
	)
)

func init() {
	prometheus.MustRegister(FallbackRungTotal, MarketplaceFailuresTotal, RoundDuration, CacheHitsTotal)
}
