// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus counters for the proxy: cache activity,
// upstream exchanges and token refreshes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for one proxy instance. Each instance
// owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Cache metrics
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	CacheExpirations *prometheus.CounterVec

	// Upstream metrics
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// Token metrics
	TokenRefreshes *prometheus.CounterVec
}

// New creates a Metrics instance with the given namespace, including the
// standard Go and process collectors.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits",
		}, []string{"cache"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses",
		}, []string{"cache"}),
		CacheExpirations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_expirations_total",
			Help:      "Total number of entries evicted because they were read after expiry",
		}, []string{"cache"}),

		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of upstream API requests by endpoint and status code",
		}, []string{"endpoint", "code"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request latency in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"endpoint"}),

		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Total number of upstream token refresh attempts by result",
		}, []string{"result"}),
	}
}

// ObserveUpstream records one upstream exchange. A zero code means the
// request never got a response.
func (m *Metrics) ObserveUpstream(endpoint string, code int, elapsed time.Duration) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.UpstreamRequests.WithLabelValues(endpoint, label).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// TokenRefreshed records the outcome of a token refresh attempt.
func (m *Metrics) TokenRefreshed(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// CacheObserver returns an observer that counts events for the named cache.
func (m *Metrics) CacheObserver(name string) *CacheObserver {
	return &CacheObserver{
		hits:    m.CacheHits.WithLabelValues(name),
		misses:  m.CacheMisses.WithLabelValues(name),
		expires: m.CacheExpirations.WithLabelValues(name),
	}
}

// Handler returns the HTTP handler for the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CacheObserver counts hits, misses and expirations of one cache.
type CacheObserver struct {
	hits, misses, expires prometheus.Counter
}

func (o *CacheObserver) Hit()    { o.hits.Inc() }
func (o *CacheObserver) Miss()   { o.misses.Inc() }
func (o *CacheObserver) Expire() { o.expires.Inc() }
