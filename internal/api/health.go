package api

import (
	"net/http"
	"os"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Snapshot string `json:"snapshot"`
	History  string `json:"history"`
	// SnapshotModified is the file's mtime; empty when it does not exist.
	SnapshotModified string `json:"snapshotModified,omitempty"`
	// LastArchived is the capture time of the newest history row.
	LastArchived string `json:"lastArchived,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	svc := healthServices{Snapshot: "missing", History: "disabled"}
	if fi, err := os.Stat(s.outputPath); err == nil {
		svc.Snapshot = "present"
		svc.SnapshotModified = fi.ModTime().UTC().Format(time.RFC3339)
	}
	if s.history != nil {
		svc.History = "connected"
		if err := s.history.Ping(r.Context()); err != nil {
			svc.History = "disconnected"
		} else if rec, err := s.history.Latest(r.Context()); err != nil {
			s.log.WithError(err).Warn("read latest archived snapshot")
		} else if rec != nil {
			svc.LastArchived = rec.CapturedAt.UTC().Format(time.RFC3339)
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  svc,
	})
}
