package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

// DefaultPath is where the snapshot is written when nothing else is configured.
const DefaultPath = "market_data.json"

// Encode renders s as 2-space indented JSON with non-ASCII text kept literal.
func Encode(s *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Writer replaces the snapshot file atomically.
type Writer struct {
	Path string
}

func NewWriter(path string) *Writer {
	if path == "" {
		path = DefaultPath
	}
	return &Writer{Path: path}
}

// Write encodes s into a temp file next to Path and renames it into place.
// On failure the previous file is left as it was.
func (w *Writer) Write(s *models.Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.Path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpName, w.Path); err != nil {
		cleanup()
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Read loads a previously written snapshot.
func Read(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s models.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if ts, err := time.Parse(TimestampLayout, s.Timestamp); err == nil {
		s.CapturedAt = ts
	}
	return &s, nil
}
