package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	appLog "lessoncal/internal/log"
	"lessoncal/internal/report"
)

// cacheKindPerformance is the aggregate-cache key prefix for yearly
// performance data.
const cacheKindPerformance = "performance"

// performanceResponse wraps a yearly aggregate with its staleness flag so the
// caller can decide whether to trust old data.
type performanceResponse struct {
	Data   report.YearlyAggregate `json:"data"`
	Stale  bool                   `json:"stale"`
	Errors []string               `json:"errors,omitempty"`
}

// GET /api/performance/{year}?refresh=1
//
// Serves the cached yearly aggregate when present; on a miss or an explicit
// refresh, recomputes from the calendar feeds and writes through.
func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	refresh := r.URL.Query().Get("refresh") == "1"

	if !refresh {
		var agg report.YearlyAggregate
		if stale, ok := s.store.Read(cacheKindPerformance, year, &agg); ok {
			writeJSON(w, http.StatusOK, performanceResponse{Data: agg, Stale: stale})
			return
		}
	}

	agg, fetchErrs := s.ComputeYearly(r.Context(), year)
	writeJSON(w, http.StatusOK, performanceResponse{
		Data:   agg,
		Errors: errorStrings(fetchErrs),
	})
}

// POST /api/performance/cache/{year}
//
// Explicit cache write, for callers that computed an aggregate themselves.
func (s *Server) handlePerformanceCacheWrite(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}

	var agg report.YearlyAggregate
	if err := decodeJSON(r, &agg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid aggregate payload")
		return
	}
	if agg.Year != year {
		writeError(w, http.StatusBadRequest, "payload year does not match path")
		return
	}

	if err := s.store.Write(cacheKindPerformance, year, agg); err != nil {
		appLog.Error("aggregate cache write failed", err, "year", year)
		writeError(w, http.StatusInternalServerError, "failed to cache aggregate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ComputeYearly builds the yearly aggregate from the calendar feeds and
// writes it through to the cache. Fetch errors do not abort the computation;
// they are returned so the caller can report the aggregate as partial.
func (s *Server) ComputeYearly(ctx context.Context, year int) (report.YearlyAggregate, []error) {
	sessions, fetchErrs := s.FetchSessions(ctx, year, allMonths())

	teachers := report.AggregateLessons(sessions, s.cfg.RehearsalMarker)
	rehearsals := report.AggregateRehearsals(sessions, s.RehearsalConfig())
	agg := report.BuildYearlyAggregate(year, teachers, rehearsals.Bands)

	if err := s.store.Write(cacheKindPerformance, year, agg); err != nil {
		// The aggregate is still usable; a failed write only costs the
		// next caller a recompute.
		appLog.Error("aggregate cache write-through failed", err, "year", year)
	}

	appLog.Info("yearly aggregate computed",
		"year", year,
		"sessions", len(sessions),
		"fetch_errors", len(fetchErrs),
	)
	return agg, fetchErrs
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
