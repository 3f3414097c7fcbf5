// Package job runs one fetch-merge-save cycle: defaults, live refresh,
// snapshot write, then best-effort side effects.
package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-data-fetcher/internal/catalog"
	"github.com/kjannette/market-data-fetcher/internal/fetch"
	"github.com/kjannette/market-data-fetcher/internal/metrics"
	"github.com/kjannette/market-data-fetcher/internal/models"
	"github.com/kjannette/market-data-fetcher/internal/notifications"
	"github.com/kjannette/market-data-fetcher/internal/snapshot"
)

var (
	// ErrWrite marks a run whose snapshot could not be written.
	ErrWrite = errors.New("snapshot write failed")
	// ErrUnexpected marks a run aborted by a recovered panic.
	ErrUnexpected = errors.New("unexpected error")
)

// HistoryStore archives written snapshots.
type HistoryStore interface {
	Record(ctx context.Context, snap *models.Snapshot, payload []byte) (*models.SnapshotRecord, error)
}

// Notifier delivers run summaries.
type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, msg string) error
}

// Result is what one run produced.
type Result struct {
	Snapshot *models.Snapshot
	Outcomes []fetch.Outcome
	Plan     fetch.Plan
	Path     string
}

// Live counts indicators refreshed from a live source.
func (r *Result) Live() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Live() {
			n++
		}
	}
	return n
}

type Runner struct {
	Catalog *catalog.Catalog
	Plan    fetch.Plan
	Fetcher *fetch.Fetcher
	Clock   snapshot.Clock
	Writer  *snapshot.Writer

	// Optional side effects; nil disables each.
	Metrics         *metrics.Recorder
	MetricsTextfile string
	History         HistoryStore
	Notifier        Notifier

	Progress io.Writer
	Log      logrus.FieldLogger
}

// Run performs one cycle. It fails only when the snapshot could not be
// written or orchestration itself broke; fetch failures only keep defaults.
func (r *Runner) Run(ctx context.Context) (res *Result, err error) {
	log := r.logger()
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("recovered panic in run: %v", p)
			res, err = nil, fmt.Errorf("%w: %v", ErrUnexpected, p)
		}
	}()

	capturedAt := r.Clock.Now()
	set := r.Catalog.Defaults(capturedAt)

	r.printf("\n1. Fetching live data from APIs...\n")
	outcomes := r.Fetcher.Run(ctx, r.Plan, set)

	snap := snapshot.Assemble(set, capturedAt)
	res = &Result{Snapshot: snap, Outcomes: outcomes, Plan: r.Plan, Path: r.Writer.Path}

	if werr := r.Writer.Write(snap); werr != nil {
		r.printf("\n✗ Error saving data: %v\n", werr)
		log.WithError(werr).WithField("path", r.Writer.Path).Error("snapshot write failed")
		r.afterFailure(ctx, werr)
		return res, fmt.Errorf("%w: %v", ErrWrite, werr)
	}
	r.printf("\n✓ Data saved to %s\n", r.Writer.Path)
	log.WithFields(logrus.Fields{
		"path": r.Writer.Path,
		"live": res.Live(),
	}).Info("snapshot written")

	r.afterSuccess(ctx, res)
	return res, nil
}

func (r *Runner) afterSuccess(ctx context.Context, res *Result) {
	log := r.logger()

	if r.Metrics != nil {
		for _, o := range res.Outcomes {
			r.Metrics.RecordOutcome(o)
		}
		r.Metrics.RecordSnapshot(res.Snapshot)
		r.writeTextfile()
	}

	if r.History != nil {
		r.sideEffect("history", func() error {
			payload, err := snapshot.Encode(res.Snapshot)
			if err != nil {
				return err
			}
			hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			rec, err := r.History.Record(hctx, res.Snapshot, payload)
			if err != nil {
				return err
			}
			log.WithField("id", rec.ID).Debug("snapshot archived")
			return nil
		})
	}

	r.notify(ctx, notifications.RunSummary(res.Snapshot, res.Outcomes, res.Path))
}

func (r *Runner) afterFailure(ctx context.Context, werr error) {
	if r.Metrics != nil {
		r.Metrics.RecordWriteFailure()
		r.writeTextfile()
	}
	r.notify(ctx, notifications.FailureSummary(r.Writer.Path, werr))
}

func (r *Runner) writeTextfile() {
	if r.MetricsTextfile == "" {
		return
	}
	r.sideEffect("metrics", func() error {
		return r.Metrics.WriteTextfile(r.MetricsTextfile)
	})
}

func (r *Runner) notify(ctx context.Context, msg string) {
	if r.Notifier == nil || !r.Notifier.Enabled() {
		return
	}
	r.sideEffect("webhook", func() error {
		nctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return r.Notifier.Send(nctx, msg)
	})
}

// sideEffect runs fn and logs any error or panic; it never affects the run result.
func (r *Runner) sideEffect(name string, fn func() error) {
	log := r.logger().WithField("side_effect", name)
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("recovered panic: %v", p)
		}
	}()
	if err := fn(); err != nil {
		log.WithError(err).Warn("side effect failed")
	}
}

func (r *Runner) printf(format string, args ...any) {
	if r.Progress != nil {
		fmt.Fprintf(r.Progress, format, args...)
	}
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.WithField("component", "job")
	}
	return r.Log.WithField("component", "job")
}
