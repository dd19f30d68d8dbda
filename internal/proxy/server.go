// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/staranto/drivedengo/internal/cache"
	"github.com/staranto/drivedengo/internal/gi"
)

const (
	DefaultSearchTTL = 2 * time.Minute
	DefaultGPSTTL    = 10 * time.Minute

	searchKeyPrefix = "s:"
	gpsKeyPrefix    = "g:"
)

// Upstream is the subset of the GI client the proxy needs.
type Upstream interface {
	Search(ctx context.Context, keywords string) (json.RawMessage, error)
	CourseGroupGPS(ctx context.Context, publicID string) (json.RawMessage, error)
}

// Config controls caching and the optional surfaces of the server.
type Config struct {
	SearchTTL time.Duration
	GPSTTL    time.Duration
	// WebDir holds index.html and other static assets. Empty disables static
	// serving.
	WebDir string
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// DefaultConfig returns the standard configuration used when no overrides are
// provided.
func DefaultConfig() Config {
	return Config{
		SearchTTL: DefaultSearchTTL,
		GPSTTL:    DefaultGPSTTL,
		WebDir:    "web",
	}
}

// Server routes browser requests to the cache and the upstream API.
type Server struct {
	router    chi.Router
	upstream  Upstream
	responses *cache.Cache[json.RawMessage]
	cfg       Config
}

// NewServer wires a Server around the given upstream and response cache.
func NewServer(upstream Upstream, responses *cache.Cache[json.RawMessage], cfg Config) *Server {
	def := DefaultConfig()
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = def.SearchTTL
	}
	if cfg.GPSTTL <= 0 {
		cfg.GPSTTL = def.GPSTTL
	}

	s := &Server{
		router:    chi.NewRouter(),
		upstream:  upstream,
		responses: responses,
		cfg:       cfg,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SearchKey is the cache key of a course search.
func SearchKey(query string) string {
	return searchKeyPrefix + strings.TrimSpace(query)
}

// GPSKey is the cache key of a course group GPS lookup.
func GPSKey(publicID string) string {
	return gpsKeyPrefix + publicID
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if s.cfg.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	s.router.Get("/gi/courses", s.handleSearch)
	s.router.Get("/gi/courses/{publicId}/gps", s.handleGPS)

	if s.cfg.WebDir != "" {
		index := filepath.Join(s.cfg.WebDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			log.WithField("path", index).WithError(err).Warn("web index missing")
		}
		s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, index)
		})
		s.router.NotFound(http.FileServer(http.Dir(s.cfg.WebDir)).ServeHTTP)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	s.serveCached(w, r, SearchKey(query), s.cfg.SearchTTL, func(ctx context.Context) (json.RawMessage, error) {
		return s.upstream.Search(ctx, query)
	})
}

func (s *Server) handleGPS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "publicId")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
	}
	s.serveCached(w, r, GPSKey(id), s.cfg.GPSTTL, func(ctx context.Context) (json.RawMessage, error) {
		return s.upstream.CourseGroupGPS(ctx, id)
	})
}

// serveCached answers from the cache when it can. On a miss it calls fetch
// once and caches the payload only if fetch succeeded.
func (s *Server) serveCached(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	ttl time.Duration,
	fetch func(context.Context) (json.RawMessage, error),
) {
	if payload, ok := s.responses.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeRaw(w, http.StatusOK, "application/json", payload)
		return
	}

	payload, err := fetch(r.Context())
	if err != nil {
		writeFailure(w, key, err)
		return
	}

	s.responses.Put(key, payload, ttl)
	w.Header().Set("X-Cache", "MISS")
	writeRaw(w, http.StatusOK, "application/json", payload)
}

// writeFailure mirrors upstream non-2xx answers and turns everything else
// into a generic 500.
func writeFailure(w http.ResponseWriter, key string, err error) {
	var upErr *gi.UpstreamError
	if errors.As(err, &upErr) {
		log.WithFields(log.Fields{"key": key, "status": upErr.Status}).Warn("upstream request failed")
		contentType := upErr.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		writeRaw(w, upErr.Status, contentType, upErr.Body)
		return
	}

	log.WithField("key", key).WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": ww.Status(),
			"dur":    time.Since(start).Round(time.Microsecond),
			"remote": r.RemoteAddr,
		}).Debug("request")
	})
}
