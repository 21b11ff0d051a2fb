// Package web exposes the report API: school and rehearsal reports, the
// needs-payment view, exclude-word management and the yearly aggregate cache.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"lessoncal/internal/cache"
	"lessoncal/internal/calendar"
	"lessoncal/internal/config"
	appLog "lessoncal/internal/log"
	"lessoncal/internal/model"
)

// Server wires the calendar client, the aggregate cache and the config into
// the HTTP API.
type Server struct {
	cfg     *config.Config
	cfgPath string
	client  *calendar.Client
	store   *cache.Store
	loc     *time.Location
	mux     *http.ServeMux

	// cfgMu guards mutations of cfg (exclude words) and its persistence.
	cfgMu sync.Mutex
}

// NewServer constructs a Server. cfgPath is where config mutations are
// persisted.
func NewServer(cfg *config.Config, cfgPath string) *Server {
	loc := resolveLocationOrLocal(cfg.Timezone)
	s := &Server{
		cfg:     cfg,
		cfgPath: cfgPath,
		client:  calendar.NewClient(cfg.FeedCacheDir(), loc),
		store:   cache.NewStore(cfg.AggregateCacheDir()),
		loc:     loc,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with Basic Auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/reports/school", s.handleSchoolReport)
	s.mux.HandleFunc("GET /api/reports/rehearsals", s.handleRehearsalsReport)
	s.mux.HandleFunc("GET /api/reports/needs-payment", s.handleNeedsPayment)
	s.mux.HandleFunc("GET /api/reports/rehearsals/exclude-words", s.handleGetExcludeWords)
	s.mux.HandleFunc("POST /api/reports/rehearsals/exclude-words", s.handleSetExcludeWords)
	s.mux.HandleFunc("GET /api/performance/{year}", s.handlePerformance)
	s.mux.HandleFunc("POST /api/performance/cache/{year}", s.handlePerformanceCacheWrite)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Treat empty username or password as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="LessonCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// sources builds the fetch list from the configured calendars.
func (s *Server) sources() []calendar.Source {
	out := make([]calendar.Source, 0, len(s.cfg.Calendars))
	for _, c := range s.cfg.Calendars {
		if c.URL == "" {
			continue
		}
		id := c.ID
		if id == "" {
			if c.Name != "" {
				id = c.Name
			} else {
				id = c.URL
			}
		}
		out = append(out, calendar.Source{ID: id, URL: c.URL})
	}
	return out
}

// Location returns the timezone reports are computed in.
func (s *Server) Location() *time.Location {
	return s.loc
}

// RehearsalMarker returns the configured rehearsal-room title marker.
func (s *Server) RehearsalMarker() string {
	return s.cfg.RehearsalMarker
}

// FetchSessions collects duration-annotated sessions for the given months of
// a year. Per-source failures are returned alongside the partial result so
// reports degrade instead of failing outright.
func (s *Server) FetchSessions(ctx context.Context, year int, months []int) ([]model.Session, []error) {
	sources := s.sources()

	all := make([]model.RawEvent, 0)
	errs := make([]error, 0)
	for _, m := range months {
		start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, s.loc)
		end := start.AddDate(0, 1, 0).Add(-time.Second)

		events, ferrs := s.client.ListAll(ctx, sources, start, end)
		all = append(all, events...)
		errs = append(errs, ferrs...)
	}
	return model.NewSessions(all, s.loc), errs
}

// parseMonths parses a "1,2,12" query value into 1-based month numbers.
func parseMonths(raw string) ([]int, error) {
	if raw == "" {
		return nil, errors.New("month is required")
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		m, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || m < 1 || m > 12 {
			return nil, errors.New("invalid month: " + p)
		}
		out = append(out, m)
	}
	return out, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
