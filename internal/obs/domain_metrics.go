package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts priced quote requests by outcome.
	QuoteTotal *prometheus.CounterVec
	// QuoteDuration records end-to-end quote computation latency in milliseconds.
	QuoteDuration prometheus.Histogram
	// CatalogLookupMissTotal counts soft catalog lookup misses by kind.
	// A miss means a referenced category or combo had no price entry and
	// contributed zero instead of failing the quote.
	CatalogLookupMissTotal *prometheus.CounterVec
	// SnapshotRefreshTotal counts catalog snapshot cache refreshes by source.
	SnapshotRefreshTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers the pricing domain collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of quote computations by result.",
		}, []string{"result"})
		QuoteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Latency of quote computations in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		})
		CatalogLookupMissTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_lookup_miss_total",
			Help:      "Count of catalog lookups that degraded to a zero contribution.",
		}, []string{"kind"})
		SnapshotRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_snapshot_refresh_total",
			Help:      "Count of catalog snapshot refreshes by trigger.",
		}, []string{"trigger"})

		registerOrReuse(reg, QuoteTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		registerOrReuse(reg, QuoteDuration, func(c prometheus.Collector) {
			if v, ok := c.(prometheus.Histogram); ok {
				QuoteDuration = v
			}
		})
		registerOrReuse(reg, CatalogLookupMissTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				CatalogLookupMissTotal = v
			}
		})
		registerOrReuse(reg, SnapshotRefreshTotal, func(c prometheus.Collector) {
			if v, ok := c.(*prometheus.CounterVec); ok {
				SnapshotRefreshTotal = v
			}
		})
	})
}
