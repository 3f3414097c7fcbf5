package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjannette/market-data-fetcher/internal/external"
	"github.com/kjannette/market-data-fetcher/internal/fetch"
	"github.com/kjannette/market-data-fetcher/internal/guard"
	"github.com/kjannette/market-data-fetcher/internal/httputil"
	"github.com/kjannette/market-data-fetcher/internal/models"
)

// Recorder exposes fetch and snapshot metrics on its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	attempts      *prometheus.CounterVec
	attemptTime   *prometheus.HistogramVec
	value         *prometheus.GaugeVec
	live          *prometheus.GaugeVec
	lastRun       prometheus.Gauge
	writeFailures prometheus.Counter
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdata_fetch_attempts_total",
				Help: "Source attempts by indicator, source and outcome",
			},
			[]string{"indicator", "source", "outcome"},
		),
		attemptTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketdata_fetch_attempt_duration_seconds",
				Help:    "Duration of source attempts in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		value: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketdata_indicator_value",
				Help: "Value written to the last snapshot",
			},
			[]string{"indicator"},
		),
		live: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketdata_indicator_live",
				Help: "1 when the last snapshot value came from a live source, 0 for the default",
			},
			[]string{"indicator"},
		),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "marketdata_last_run_timestamp_seconds",
			Help: "Capture time of the last written snapshot",
		}),
		writeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "marketdata_snapshot_write_failures_total",
			Help: "Snapshot writes that failed",
		}),
	}
}

// OutcomeLabel classifies an attempt error for the outcome label.
func OutcomeLabel(err error) string {
	var se *httputil.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "http_error"
	case errors.Is(err, external.ErrEmptyPayload):
		return "empty"
	case errors.Is(err, guard.ErrImplausible):
		return "implausible"
	case errors.Is(err, fetch.ErrUnchanged):
		return "unchanged"
	default:
		return "error"
	}
}

// RecordOutcome counts every attempt of one indicator.
func (r *Recorder) RecordOutcome(o fetch.Outcome) {
	for _, a := range o.Attempts {
		r.attempts.WithLabelValues(o.Name, a.Source, OutcomeLabel(a.Err)).Inc()
		r.attemptTime.WithLabelValues(a.Source).Observe(a.Duration.Seconds())
	}
	if o.Static {
		return
	}
	if o.Live() {
		r.live.WithLabelValues(o.Name).Set(1)
	} else {
		r.live.WithLabelValues(o.Name).Set(0)
	}
}

// RecordSnapshot sets the value gauges and last-run time from a written snapshot.
func (r *Recorder) RecordSnapshot(s *models.Snapshot) {
	for _, name := range s.Data.Names() {
		ind, _ := s.Data.Get(name)
		if ind.HasValue() {
			r.value.WithLabelValues(name).Set(*ind.Value)
		}
	}
	r.lastRun.Set(float64(s.CapturedAt.UnixNano()) / float64(time.Second))
}

func (r *Recorder) RecordWriteFailure() {
	r.writeFailures.Inc()
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// WriteTextfile writes the registry for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
