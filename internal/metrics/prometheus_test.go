package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kjannette/market-data-fetcher/internal/external"
	"github.com/kjannette/market-data-fetcher/internal/fetch"
	"github.com/kjannette/market-data-fetcher/internal/guard"
	"github.com/kjannette/market-data-fetcher/internal/httputil"
	"github.com/kjannette/market-data-fetcher/internal/models"
)

func TestOutcomeLabel(t *testing.T) {
	cases := map[string]error{
		"ok":          nil,
		"http_error":  &httputil.StatusError{Code: 503},
		"empty":       fmt.Errorf("decode: %w", external.ErrEmptyPayload),
		"implausible": fmt.Errorf("%w: 50", guard.ErrImplausible),
		"unchanged":   fetch.ErrUnchanged,
		"error":       errors.New("dial tcp: timeout"),
	}
	for want, err := range cases {
		if got := OutcomeLabel(err); got != want {
			t.Errorf("OutcomeLabel(%v): expected %s, got %s", err, want, got)
		}
	}
}

func TestRecordOutcome(t *testing.T) {
	r := New()
	r.RecordOutcome(fetch.Outcome{
		Name:    "bitcoin",
		Source:  "yahoo",
		Reading: &models.Reading{Value: 361000},
		Attempts: []fetch.Attempt{
			{Source: "coingecko", Err: &httputil.StatusError{Code: 429}, Duration: 120 * time.Millisecond},
			{Source: "yahoo", Duration: 80 * time.Millisecond},
		},
	})
	r.RecordOutcome(fetch.Outcome{
		Name:     "dollar",
		Attempts: []fetch.Attempt{{Source: "bcb", Err: errors.New("timeout")}},
		Err:      errors.New("timeout"),
	})
	r.RecordOutcome(fetch.Outcome{Name: "drex", Static: true})

	if v := testutil.ToFloat64(r.attempts.WithLabelValues("bitcoin", "coingecko", "http_error")); v != 1 {
		t.Fatalf("coingecko http_error: got %v", v)
	}
	if v := testutil.ToFloat64(r.attempts.WithLabelValues("bitcoin", "yahoo", "ok")); v != 1 {
		t.Fatalf("yahoo ok: got %v", v)
	}
	if v := testutil.ToFloat64(r.live.WithLabelValues("bitcoin")); v != 1 {
		t.Fatalf("bitcoin live: got %v", v)
	}
	if v := testutil.ToFloat64(r.live.WithLabelValues("dollar")); v != 0 {
		t.Fatalf("dollar live: got %v", v)
	}
	if n := testutil.CollectAndCount(r.live); n != 2 {
		t.Fatalf("static indicators have no live gauge, got %d series", n)
	}
}

func TestRecordSnapshot(t *testing.T) {
	r := New()
	at := time.Date(2024, 3, 9, 14, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))
	r.RecordSnapshot(&models.Snapshot{
		Data: models.NewIndicatorSet(
			models.NamedIndicator{Name: "selic", Indicator: models.Indicator{Value: models.Float(15)}},
			models.NamedIndicator{Name: "drex", Indicator: models.Indicator{Status: "PILOTO ATIVO"}},
		),
		CapturedAt: at,
	})

	if v := testutil.ToFloat64(r.value.WithLabelValues("selic")); v != 15 {
		t.Fatalf("selic value: got %v", v)
	}
	if v := testutil.ToFloat64(r.lastRun); v != float64(at.Unix()) {
		t.Fatalf("last run: got %v", v)
	}
	r.RecordWriteFailure()
	if v := testutil.ToFloat64(r.writeFailures); v != 1 {
		t.Fatalf("write failures: got %v", v)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.RecordWriteFailure()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "marketdata_snapshot_write_failures_total 1") {
		t.Fatalf("metric missing from scrape:\n%s", rec.Body.String())
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordWriteFailure()
	path := filepath.Join(t.TempDir(), "marketdata.prom")

	if err := r.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "marketdata_snapshot_write_failures_total 1") {
		t.Fatalf("textfile missing metric:\n%s", data)
	}
}
