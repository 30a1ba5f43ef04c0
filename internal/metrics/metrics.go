// file: internal/metrics/metrics.go
// version: 1.0.0
// guid: 4e5f6a7b-c8d9-4e0f-9a1b-2c3d4e5f6a7b

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmeta",
		Name:      "requests_total",
		Help:      "Total number of API requests by endpoint and status code",
	}, []string{"endpoint", "status"})
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmeta",
		Name:      "cache_lookups_total",
		Help:      "Total number of cache lookups by tier outcome (HIT-HOT, HIT-COLD, MISS)",
	}, []string{"tier"})
	providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmeta",
		Name:      "provider_requests_total",
		Help:      "Total number of requests resolved by provider and outcome",
	}, []string{"provider", "outcome"})
	rateLimitRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bookmeta",
		Name:      "ratelimit_rejections_total",
		Help:      "Total number of requests rejected by the rate limiter",
	})
	resolveDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bookmeta",
		Name:      "resolve_duration_seconds",
		Help:      "Histogram of end-to-end resolution durations by endpoint",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms up to ~20s
	}, []string{"endpoint"})
	warmOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bookmeta",
		Name:      "warm_queries_total",
		Help:      "Total number of warm-run queries by outcome (cached, skipped, failed)",
	}, []string{"outcome"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestsTotal, cacheLookups, providerRequests,
			rateLimitRejections, resolveDuration, warmOutcomes)
	})
}

func IncRequest(endpoint, status string) { requestsTotal.WithLabelValues(endpoint, status).Inc() }
func IncCacheLookup(tier string)         { cacheLookups.WithLabelValues(tier).Inc() }
func IncProvider(provider, outcome string) {
	providerRequests.WithLabelValues(provider, outcome).Inc()
}
func IncRateLimited() { rateLimitRejections.Inc() }
func ObserveResolveDuration(endpoint string, d time.Duration) {
	resolveDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
func AddWarmOutcomes(cached, skipped, failed int) {
	warmOutcomes.WithLabelValues("cached").Add(float64(cached))
	warmOutcomes.WithLabelValues("skipped").Add(float64(skipped))
	warmOutcomes.WithLabelValues("failed").Add(float64(failed))
}
