// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package proxy

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/drivedengo/internal/cache"
	"github.com/staranto/drivedengo/internal/gi"
	"github.com/staranto/drivedengo/internal/metrics"
	"github.com/staranto/drivedengo/internal/token"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// fakeGI stands in for the Golf Intelligence API and counts every call.
type fakeGI struct {
	auth, search, gps atomic.Int32

	authStatus int
	gpsStatus  int
	gpsBody    string
}

func (f *fakeGI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/authenticateToken":
		f.auth.Add(1)
		if f.authStatus != 0 {
			w.WriteHeader(f.authStatus)
			_, _ = io.WriteString(w, `{"message":"bad credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"accessToken":"tok-abc","expiresIn":3600}`)
	case "/courses/searchCourseGroups":
		n := f.search.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var sr gi.SearchRequest
		_ = json.NewDecoder(r.Body).Decode(&sr)
		_, _ = io.WriteString(w, `{"data":{"keywords":"`+sr.Keywords+`","call":`+strconv.Itoa(int(n))+`}}`)
	case "/courses/getCourseGroupGPS":
		f.gps.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if f.gpsStatus != 0 {
			w.WriteHeader(f.gpsStatus)
		}
		body := f.gpsBody
		if body == "" {
			body = `{"publicId":"` + r.URL.Query().Get("publicId") + `"}`
		}
		_, _ = io.WriteString(w, body)
	default:
		w.WriteHeader(http.StatusTeapot)
	}
}

func (f *fakeGI) calls() int32 {
	return f.auth.Load() + f.search.Load() + f.gps.Load()
}

type harness struct {
	upstream  *fakeGI
	clock     *fakeClock
	responses *cache.Cache[json.RawMessage]
	handler   http.Handler
}

func newHarness(t *testing.T, upstream *fakeGI) *harness {
	t.Helper()

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	m := metrics.New("driveden")
	tokens := token.NewManager(gi.NewAuthenticator(srv.URL, "id", "secret"), token.WithClock(clock.Now))
	client := gi.NewClient(srv.URL, tokens, gi.WithRecorder(m))
	responses := cache.New[json.RawMessage]("response", cache.WithClock(clock.Now), cache.WithObserver(m.CacheObserver("response")))

	cfg := DefaultConfig()
	cfg.WebDir = "testdata/web"
	cfg.Metrics = m.Handler()

	return &harness{
		upstream:  upstream,
		clock:     clock,
		responses: responses,
		handler:   NewServer(client, responses, cfg),
	}
}

func (h *harness) get(t *testing.T, target string) (*http.Response, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	resp := rr.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestSearch_CachedWithinTTL(t *testing.T) {
	h := newHarness(t, &fakeGI{})

	resp, first := h.get(t, "/gi/courses?q=pebble")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.JSONEq(t, `{"keywords":"pebble","call":1}`, first)
	assert.Equal(t, int32(1), h.upstream.auth.Load())
	assert.Equal(t, int32(1), h.upstream.search.Load())

	_, ok := h.responses.Get(SearchKey("pebble"))
	assert.True(t, ok, "result should be cached under the query key")

	h.clock.Advance(DefaultSearchTTL - time.Second)
	resp, second := h.get(t, "/gi/courses?q=pebble")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), h.upstream.calls(), "second search must not reach upstream")
}

func TestSearch_RefetchedAfterTTLWithoutReauth(t *testing.T) {
	h := newHarness(t, &fakeGI{})

	_, _ = h.get(t, "/gi/courses?q=pebble")
	h.clock.Advance(DefaultSearchTTL + time.Second)

	resp, body := h.get(t, "/gi/courses?q=pebble")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"keywords":"pebble","call":2}`, body)
	assert.Equal(t, int32(1), h.upstream.auth.Load(), "token is still valid")
	assert.Equal(t, int32(2), h.upstream.search.Load())
}

func TestSearch_QueryIsTrimmed(t *testing.T) {
	h := newHarness(t, &fakeGI{})

	_, _ = h.get(t, "/gi/courses?q=%20pebble%20")
	_, _ = h.get(t, "/gi/courses?q=pebble")
	assert.Equal(t, int32(1), h.upstream.search.Load())
}

func TestGPS_NotFoundIsPassedThroughAndNotCached(t *testing.T) {
	h := newHarness(t, &fakeGI{gpsStatus: http.StatusNotFound, gpsBody: `{"message":"no such course"}`})

	resp, body := h.get(t, "/gi/courses/abc123/gps")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"message":"no such course"}`, body)
	assert.Equal(t, 0, h.responses.Len())

	_, _ = h.get(t, "/gi/courses/abc123/gps")
	assert.Equal(t, int32(2), h.upstream.gps.Load(), "errors are never served from cache")
	_, ok := h.responses.Get(GPSKey("abc123"))
	assert.False(t, ok)
}

func TestGPS_Cached(t *testing.T) {
	h := newHarness(t, &fakeGI{})

	resp, body := h.get(t, "/gi/courses/abc123/gps")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"publicId":"abc123"}`, body)

	h.clock.Advance(DefaultSearchTTL + time.Minute)
	_, again := h.get(t, "/gi/courses/abc123/gps")
	assert.Equal(t, body, again)
	assert.Equal(t, int32(1), h.upstream.gps.Load(), "gps data uses the longer TTL")

	_, ok := h.responses.Get("g:abc123")
	assert.True(t, ok)
}

func TestAuthFailureIsInternalError(t *testing.T) {
	h := newHarness(t, &fakeGI{authStatus: http.StatusUnauthorized})

	resp, body := h.get(t, "/gi/courses?q=pebble")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Contains(t, payload["error"], "auth failed 401")
	assert.Equal(t, int32(0), h.upstream.search.Load(), "no data call without a token")
	assert.Equal(t, 0, h.responses.Len())
}

func TestTransportFailureIsInternalError(t *testing.T) {
	upstream := &fakeGI{}
	h := newHarness(t, upstream)

	// Point a fresh server at a dead upstream.
	dead := httptest.NewServer(upstream)
	url := dead.URL
	dead.Close()
	tokens := token.NewManager(gi.NewAuthenticator(url, "id", "secret"))
	h.handler = NewServer(gi.NewClient(url, tokens), h.responses, DefaultConfig())

	resp, body := h.get(t, "/gi/courses/abc123/gps")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, `"error"`)
	assert.Equal(t, 0, h.responses.Len())
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, &fakeGI{})

	resp, body := h.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assert.Equal(t, int32(0), h.upstream.calls())
}

func TestStaticAssets(t *testing.T) {
	h := newHarness(t, &fakeGI{})

	resp, body := h.get(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "DriveDen GPS")

	resp, body = h.get(t, "/app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "margin")

	resp, _ = h.get(t, "/nope.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, &fakeGI{})
	_, _ = h.get(t, "/gi/courses?q=pebble")
	_, _ = h.get(t, "/gi/courses?q=pebble")

	resp, body := h.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `driveden_cache_hits_total{cache="response"} 1`)
	assert.Contains(t, body, `driveden_upstream_requests_total{code="200",endpoint="search"} 1`)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "s:pebble", SearchKey("  pebble "))
	assert.Equal(t, "s:", SearchKey(""))
	assert.Equal(t, "g:abc123", GPSKey("abc123"))
}
