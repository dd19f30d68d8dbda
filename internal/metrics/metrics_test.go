// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = New("driveden")
		_ = New("driveden")
	})
}

func TestObserveUpstream(t *testing.T) {
	m := New("test")
	m.ObserveUpstream("search", http.StatusOK, 20*time.Millisecond)
	m.ObserveUpstream("search", http.StatusOK, 30*time.Millisecond)
	m.ObserveUpstream("gps", http.StatusNotFound, time.Millisecond)
	m.ObserveUpstream("gps", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("search", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("gps", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("gps", "error")))
}

func TestTokenRefreshed(t *testing.T) {
	m := New("test")
	m.TokenRefreshed(nil)
	m.TokenRefreshed(errors.New("nope"))
	m.TokenRefreshed(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues("failure")))
}

func TestCacheObserver(t *testing.T) {
	m := New("test")
	obs := m.CacheObserver("search")
	obs.Hit()
	obs.Miss()
	obs.Miss()
	obs.Expire()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("search")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMisses.WithLabelValues("search")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheExpirations.WithLabelValues("search")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("gps")))
}

func TestHandler(t *testing.T) {
	m := New("driveden")
	m.CacheObserver("gps").Hit()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), `driveden_cache_hits_total{cache="gps"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
