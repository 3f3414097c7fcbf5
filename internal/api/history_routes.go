package api

import (
	"net/http"
)

func (s *Server) historyEnabled(w http.ResponseWriter) bool {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
		return false
	}
	return true
}

func (s *Server) handleHistoryRecent(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w) {
		return
	}
	recs, err := s.history.Recent(r.Context(), parseLimit(r, 50))
	if err != nil {
		s.log.WithError(err).Error("fetch recent snapshots")
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleHistoryByDay(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w) {
		return
	}
	date := r.PathValue("date")
	if !validateDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}
	recs, err := s.history.ByDay(r.Context(), date)
	if err != nil {
		s.log.WithError(err).WithField("day", date).Error("fetch snapshots by day")
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleHistoryDays(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled(w) {
		return
	}
	days, err := s.history.AvailableDays(r.Context())
	if err != nil {
		s.log.WithError(err).Error("fetch available days")
		writeError(w, http.StatusInternalServerError, "failed to fetch available days")
		return
	}
	if days == nil {
		days = []string{}
	}
	writeJSON(w, http.StatusOK, days)
}
