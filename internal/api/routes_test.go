package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-data-fetcher/internal/metrics"
	"github.com/kjannette/market-data-fetcher/internal/models"
)

type fakeHistory struct {
	pingErr error
	err     error
	recs    []models.SnapshotRecord
	days    []string
	limit   int
	day     string
}

func (f *fakeHistory) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeHistory) Latest(ctx context.Context) (*models.SnapshotRecord, error) {
	if len(f.recs) == 0 {
		return nil, f.err
	}
	return &f.recs[0], f.err
}

func (f *fakeHistory) Recent(ctx context.Context, limit int) ([]models.SnapshotRecord, error) {
	f.limit = limit
	return f.recs, f.err
}

func (f *fakeHistory) ByDay(ctx context.Context, day string) ([]models.SnapshotRecord, error) {
	f.day = day
	return f.recs, f.err
}

func (f *fakeHistory) AvailableDays(ctx context.Context) ([]string, error) {
	return f.days, f.err
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer(t *testing.T, path string, h HistoryReader) http.Handler {
	t.Helper()
	return NewServer(path, Options{
		Port:    0,
		History: h,
		Metrics: metrics.New().Handler(),
		Logger:  quiet(),
	}).Handler()
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestMarketData_ServesFileVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_data.json")
	body := "{\n  \"timestamp\": \"2024-03-09T14:05:07.000000-03:00\"\n}\n"
	os.WriteFile(path, []byte(body), 0o644)

	rr := get(t, newTestServer(t, path, nil), "/v1/market-data")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != body {
		t.Fatalf("body must be the file as written, got %q", rr.Body.String())
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("content type: %s", rr.Header().Get("Content-Type"))
	}
}

func TestMarketData_MissingFile(t *testing.T) {
	rr := get(t, newTestServer(t, filepath.Join(t.TempDir(), "none.json"), nil), "/v1/market-data")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestHistory_Disabled(t *testing.T) {
	h := newTestServer(t, "x.json", nil)
	for _, target := range []string{
		"/v1/market-data/history",
		"/v1/market-data/history/days",
		"/v1/market-data/history/day/2024-03-09",
	} {
		if rr := get(t, h, target); rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s: expected 503, got %d", target, rr.Code)
		}
	}
}

func TestHistory_Recent(t *testing.T) {
	fh := &fakeHistory{recs: []models.SnapshotRecord{{
		ID:         7,
		CapturedAt: time.Date(2024, 3, 9, 17, 5, 7, 0, time.UTC),
		CaptureDay: "2024-03-09",
		Payload:    json.RawMessage(`{"timestamp":"x"}`),
	}}}
	rr := get(t, newTestServer(t, "x.json", fh), "/v1/market-data/history?limit=5")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if fh.limit != 5 {
		t.Fatalf("limit not passed through: %d", fh.limit)
	}

	var got []models.SnapshotRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 7 || string(got[0].Payload) != `{"timestamp":"x"}` {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestHistory_ByDay(t *testing.T) {
	fh := &fakeHistory{recs: []models.SnapshotRecord{}}
	h := newTestServer(t, "x.json", fh)

	if rr := get(t, h, "/v1/market-data/history/day/09-03-2024"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr := get(t, h, "/v1/market-data/history/day/2024-03-09")
	if rr.Code != http.StatusOK || fh.day != "2024-03-09" {
		t.Fatalf("expected 200 for 2024-03-09, got %d (day %q)", rr.Code, fh.day)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %s", rr.Body.String())
	}
}

func TestHistory_DaysEmpty(t *testing.T) {
	rr := get(t, newTestServer(t, "x.json", &fakeHistory{}), "/v1/market-data/history/days")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("nil days must encode as [], got %s", rr.Body.String())
	}
}

func TestHistory_StoreError(t *testing.T) {
	rr := get(t, newTestServer(t, "x.json", &fakeHistory{err: errors.New("boom")}), "/v1/market-data/history")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market_data.json")
	h := newTestServer(t, path, &fakeHistory{pingErr: errors.New("down")})

	var resp healthResponse
	json.Unmarshal(get(t, h, "/health").Body.Bytes(), &resp)
	if resp.Status != "ok" || resp.Services.Snapshot != "missing" || resp.Services.History != "disconnected" {
		t.Fatalf("unexpected health: %+v", resp)
	}

	os.WriteFile(path, []byte("{}"), 0o644)
	json.Unmarshal(get(t, newTestServer(t, path, nil), "/health").Body.Bytes(), &resp)
	if resp.Services.Snapshot != "present" || resp.Services.History != "disabled" || resp.Services.SnapshotModified == "" {
		t.Fatalf("unexpected health: %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := get(t, newTestServer(t, "x.json", nil), "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "marketdata_snapshot_write_failures_total") {
		t.Fatalf("expected registry contents, got:\n%s", rr.Body.String())
	}
}

func TestHealth_LastArchived(t *testing.T) {
	fh := &fakeHistory{recs: []models.SnapshotRecord{{
		ID:         3,
		CapturedAt: time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("UTC-3", -3*3600)),
	}}}

	var resp healthResponse
	json.Unmarshal(get(t, newTestServer(t, "x.json", fh), "/health").Body.Bytes(), &resp)
	if resp.Services.History != "connected" || resp.Services.LastArchived != "2024-03-09T17:05:07Z" {
		t.Fatalf("unexpected health: %+v", resp.Services)
	}

	var empty healthResponse
	json.Unmarshal(get(t, newTestServer(t, "x.json", &fakeHistory{}), "/health").Body.Bytes(), &empty)
	if empty.Services.History != "connected" || empty.Services.LastArchived != "" {
		t.Fatalf("empty archive must omit lastArchived: %+v", empty.Services)
	}
}
