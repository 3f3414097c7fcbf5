package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
)

// handleMarketData serves the last written snapshot byte for byte.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.outputPath)
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "no snapshot written yet")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("read snapshot")
		writeError(w, http.StatusInternalServerError, "failed to read snapshot")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
