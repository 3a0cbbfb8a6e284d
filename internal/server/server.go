// Package server exposes the HTTP surface: live odds lookups, a
// pass-through to the racing-data API, and operational endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/XavierBriggs/Paddock/internal/metrics"
	"github.com/XavierBriggs/Paddock/pkg/contracts"
	"github.com/XavierBriggs/Paddock/pkg/models"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// RacingProxy forwards a raw request path to the racing-data API and
// returns the upstream status and body.
type RacingProxy interface {
	Proxy(ctx context.Context, path string) (int, []byte, error)
}

// AdminStore covers the seeding writes the admin routes perform.
// Implemented by the race stores.
type AdminStore interface {
	SetActiveMeeting(ctx context.Context, meeting models.Meeting) error
	UpsertRace(ctx context.Context, race models.StoredRace) error
}

// Server contains dependencies for the HTTP handlers.
type Server struct {
	odds   contracts.OddsSource
	racing contracts.RacingDataSource
	proxy  RacingProxy
	admin  AdminStore
	logger *logrus.Logger
}

// New creates a server.
func New(odds contracts.OddsSource, racing contracts.RacingDataSource, proxy RacingProxy, admin AdminStore, logger *logrus.Logger) *Server {
	return &Server{odds: odds, racing: racing, proxy: proxy, admin: admin, logger: logger}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/odds", s.handleOdds)
	r.Get("/debug-results", s.handleDebugResults)
	r.Handle("/metrics", metrics.Handler())

	// Seeding routes: set the meeting the cycle works, load race docs.
	r.Post("/admin/meeting", s.handleSetMeeting)
	r.Post("/admin/races", s.handleUpsertRace)

	// Everything under /api/ forwards to the racing-data API.
	r.Get("/api/*", s.handleAPIProxy)

	return r
}

// handleHealth returns the health status of the service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "paddock",
	})
}

// handleOdds fetches live exchange odds for a venue and date.
// Query params: venue (required), date (defaults to today).
func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	venue := r.URL.Query().Get("venue")
	if venue == "" {
		respondJSON(w, http.StatusBadRequest, oddsError("venue is required"))
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	odds, err := s.odds.FetchOdds(ctx, venue, date)
	if err != nil {
		s.logger.WithError(err).WithField("venue", venue).Warn("odds fetch failed")
		respondJSON(w, http.StatusInternalServerError, oddsError(err.Error()))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"odds":     nonNil(odds.ByTime),
		"oddsFlat": nonNil(odds.Flat),
		"count":    odds.Count(),
	})
}

// handleDebugResults fetches the raw results feed and returns the total
// plus the first few entries, for eyeballing feed shape in production.
// Query params: day ("today" or "tomorrow", defaults to today).
func (s *Server) handleDebugResults(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	day := r.URL.Query().Get("day")
	if day == "" {
		day = "today"
	}

	outcomes, err := s.racing.FetchResults(ctx, day)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
		return
	}

	sample := outcomes
	if len(sample) > 3 {
		sample = sample[:3]
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":  len(outcomes),
		"sample": sample,
	})
}

// handleSetMeeting stores the active-meeting config document the
// reconciliation cycle works from.
func (s *Server) handleSetMeeting(w http.ResponseWriter, r *http.Request) {
	var meeting models.Meeting
	if err := json.NewDecoder(r.Body).Decode(&meeting); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid meeting document"})
		return
	}
	if meeting.Venue == "" || meeting.Date == "" {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "venue and date are required"})
		return
	}

	if err := s.admin.SetActiveMeeting(r.Context(), meeting); err != nil {
		s.logger.WithError(err).Warn("set active meeting failed")
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "store update failed"})
		return
	}

	s.logger.WithFields(logrus.Fields{"venue": meeting.Venue, "date": meeting.Date}).Info("active meeting set")
	respondJSON(w, http.StatusOK, map[string]interface{}{"meeting": meeting})
}

// handleUpsertRace seeds or replaces one race document.
func (s *Server) handleUpsertRace(w http.ResponseWriter, r *http.Request) {
	var race models.StoredRace
	if err := json.NewDecoder(r.Body).Decode(&race); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid race document"})
		return
	}
	if race.ID == "" || race.Date == "" {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "id and date are required"})
		return
	}

	if err := s.admin.UpsertRace(r.Context(), race); err != nil {
		s.logger.WithError(err).WithField("race", race.ID).Warn("race upsert failed")
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"error": "store update failed"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": race.ID})
}

// handleAPIProxy forwards /api/<rest> to the racing-data API as
// /v1/<rest>, preserving the query string and the upstream status.
func (s *Server) handleAPIProxy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 25*time.Second)
	defer cancel()

	rest := strings.TrimPrefix(r.URL.Path, "/api/")
	path := "/v1/" + rest
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	status, body, err := s.proxy.Proxy(ctx, path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("racing api proxy failed")
		respondJSON(w, http.StatusBadGateway, map[string]interface{}{"error": "upstream unavailable"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// oddsError is the odds endpoint failure payload: the maps are always
// present so clients can iterate without nil checks.
func oddsError(msg string) map[string]interface{} {
	return map[string]interface{}{
		"error":    msg,
		"odds":     map[string]string{},
		"oddsFlat": map[string]string{},
	}
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
