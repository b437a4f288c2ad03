package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by method, route, and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuckshop_http_requests_total",
		Help: "HTTP requests processed, partitioned by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request latency per route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tuckshop_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Settlements counts checkout settlements by outcome.
	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tuckshop_settlements_total",
		Help: "Checkout settlements, partitioned by outcome.",
	}, []string{"outcome"})

	// StockEvents counts published stock-change events.
	StockEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tuckshop_stock_events_published_total",
		Help: "Stock update events published to the relay topic.",
	})
)
