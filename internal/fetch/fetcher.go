// Package fetch refreshes the indicator set from live sources. Every
// indicator is fetched independently; any failure keeps its default.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kjannette/market-data-fetcher/internal/httputil"
	"github.com/kjannette/market-data-fetcher/internal/models"
)

var (
	// ErrUnchanged rejects a reading equal to the default of a require-change indicator.
	ErrUnchanged = errors.New("no change from default")
	// ErrNoCapability marks indicators skipped because live fetching is unavailable.
	ErrNoCapability = errors.New("live fetch unavailable")
)

// Getter is the HTTP capability: one GET, status and body back.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*httputil.Response, error)
}

// Attempt records one source call.
type Attempt struct {
	Source   string
	Err      error
	Duration time.Duration
}

// Outcome is the result of refreshing one indicator.
type Outcome struct {
	Name string
	// Source is the winning source; empty when the default was kept.
	Source string
	// Fallback is set when the winner was not the first source.
	Fallback bool
	Reading  *models.Reading
	Attempts []Attempt
	// Err is the last failure when the default was kept.
	Err    error
	Static bool
}

// Live reports whether a live reading was merged.
func (o Outcome) Live() bool {
	return o.Reading != nil
}

type Options struct {
	// Concurrent fetches indicators in parallel; merging stays serial and in plan order.
	Concurrent     bool
	MaxConcurrency int
	// Timeout bounds each attempt in addition to the getter's own timeout.
	Timeout time.Duration
	// Progress receives one line per indicator. Nil disables progress output.
	Progress io.Writer
	Logger   logrus.FieldLogger
}

type Fetcher struct {
	getter Getter
	opts   Options
	log    logrus.FieldLogger
}

// New returns a Fetcher. A nil getter means no HTTP capability is available;
// Run then keeps every default.
func New(getter Getter, opts Options) *Fetcher {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Fetcher{
		getter: getter,
		opts:   opts,
		log:    log.WithField("component", "fetch"),
	}
}

// Run refreshes set in place following plan and returns one outcome per plan entry.
// It never fails: every problem is contained in the affected indicator's outcome.
func (f *Fetcher) Run(ctx context.Context, plan Plan, set *models.IndicatorSet) []Outcome {
	defaults := make([]models.Indicator, len(plan))
	for i, ind := range plan {
		defaults[i], _ = set.Get(ind.Name)
	}

	if f.getter == nil {
		writeLine(f.opts.Progress, "\n⚠ HTTP client unavailable - using default data")
		f.log.Warn("no HTTP capability, skipping all live fetches")
		outcomes := make([]Outcome, len(plan))
		for i, ind := range plan {
			outcomes[i] = Outcome{Name: ind.Name, Static: ind.Static()}
			if !ind.Static() {
				outcomes[i].Err = ErrNoCapability
			}
		}
		return outcomes
	}

	if !f.opts.Concurrent {
		outcomes := make([]Outcome, len(plan))
		for i, ind := range plan {
			outcomes[i] = f.resolve(ctx, ind, defaults[i])
			f.merge(set, ind, &outcomes[i])
		}
		return outcomes
	}

	outcomes := make([]Outcome, len(plan))
	var g errgroup.Group
	g.SetLimit(f.opts.MaxConcurrency)
	for i, ind := range plan {
		g.Go(func() error {
			outcomes[i] = f.resolve(ctx, ind, defaults[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, ind := range plan {
		f.merge(set, ind, &outcomes[i])
	}
	return outcomes
}

func (f *Fetcher) merge(set *models.IndicatorSet, ind Indicator, o *Outcome) {
	if o.Reading != nil {
		if err := set.Apply(ind.Name, *o.Reading, models.ApplyOptions{Integer: ind.Integer}); err != nil {
			f.log.WithError(err).WithField("indicator", ind.Name).Error("merge failed")
			o.Reading, o.Source, o.Fallback, o.Err = nil, "", false, err
		}
	}
	writeLine(f.opts.Progress, ProgressLine(ind.Label, *o))
}

// resolve walks the source chain until one attempt yields an acceptable reading.
func (f *Fetcher) resolve(ctx context.Context, ind Indicator, def models.Indicator) (out Outcome) {
	out = Outcome{Name: ind.Name, Static: ind.Static()}
	defer func() {
		if p := recover(); p != nil {
			out.Reading, out.Source = nil, ""
			out.Err = fmt.Errorf("panic: %v", p)
			f.log.WithField("indicator", ind.Name).Errorf("recovered panic resolving indicator: %v", p)
		}
	}()

	for i, src := range ind.Sources {
		start := time.Now()
		r, err := f.attempt(ctx, ind, src, def)
		out.Attempts = append(out.Attempts, Attempt{Source: src.Name, Err: err, Duration: time.Since(start)})

		logger := f.log.WithFields(logrus.Fields{
			"indicator": ind.Name,
			"source":    src.Name,
			"elapsed":   time.Since(start).Round(time.Millisecond).String(),
		})
		if err != nil {
			logger.WithError(err).Debug("source attempt failed")
			out.Err = err
			continue
		}

		logger.WithField("value", r.Value).Debug("source attempt succeeded")
		out.Reading = &r
		out.Source = src.Name
		out.Fallback = i > 0
		out.Err = nil
		return out
	}

	if out.Err != nil {
		f.log.WithFields(logrus.Fields{
			"indicator": ind.Name,
			"attempts":  len(out.Attempts),
		}).WithError(out.Err).Warn("keeping default value")
	}
	return out
}

// attempt performs one GET and validates the reading. Panics are returned as errors.
func (f *Fetcher) attempt(ctx context.Context, ind Indicator, src Source, def models.Indicator) (r models.Reading, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = models.Reading{}, fmt.Errorf("panic: %v", p)
		}
	}()

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	resp, err := f.getter.Get(ctx, src.URL, src.Headers)
	if err != nil {
		return models.Reading{}, err
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return models.Reading{}, err
	}

	r, err = src.Extractor.Extract(resp.Body)
	if err != nil {
		return models.Reading{}, err
	}
	if err := ind.Limits.Check(r.Value); err != nil {
		return models.Reading{}, err
	}
	if r.Change != nil && (math.IsNaN(*r.Change) || math.IsInf(*r.Change, 0)) {
		f.log.WithFields(logrus.Fields{
			"indicator": ind.Name,
			"source":    src.Name,
		}).Debug("dropping non-finite change")
		r.Change = nil
	}

	if ind.RequireChange && def.HasValue() {
		v := r.Value
		if ind.Integer {
			v = math.Trunc(v)
		}
		if v == *def.Value {
			return models.Reading{}, ErrUnchanged
		}
	}
	return r, nil
}
