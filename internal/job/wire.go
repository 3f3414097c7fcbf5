package job

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-data-fetcher/internal/catalog"
	"github.com/kjannette/market-data-fetcher/internal/config"
	"github.com/kjannette/market-data-fetcher/internal/db"
	"github.com/kjannette/market-data-fetcher/internal/fetch"
	"github.com/kjannette/market-data-fetcher/internal/httputil"
	"github.com/kjannette/market-data-fetcher/internal/metrics"
	"github.com/kjannette/market-data-fetcher/internal/notifications"
	"github.com/kjannette/market-data-fetcher/internal/repository"
	"github.com/kjannette/market-data-fetcher/internal/snapshot"
)

// Components is a wired runner plus the pieces the server also needs.
type Components struct {
	Runner  *Runner
	Metrics *metrics.Recorder
	// History is nil unless HISTORY_ENABLED is set and the database is reachable.
	History *repository.SnapshotRepo

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (c *Components) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

// Build wires a Runner from configuration. Only an unusable catalog is fatal;
// an unreachable history database disables history with a warning.
func Build(ctx context.Context, cfg *config.Config, log *logrus.Logger, progress io.Writer) (*Components, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	plan, err := fetch.NewPlan(cat)
	if err != nil {
		return nil, err
	}

	// A nil interface, not a nil *Client, signals "no HTTP capability".
	var getter fetch.Getter
	if cfg.LiveFetchEnabled {
		getter = httputil.NewClient(cfg.FetchTimeout())
	}

	rec := metrics.New()
	c := &Components{Metrics: rec}
	c.Runner = &Runner{
		Catalog: cat,
		Plan:    plan,
		Fetcher: fetch.New(getter, fetch.Options{
			Concurrent:     cfg.FetchConcurrent,
			MaxConcurrency: cfg.FetchMaxConcurrency,
			Timeout:        cfg.FetchTimeout(),
			Progress:       progress,
			Logger:         log,
		}),
		Clock:           snapshot.NewClock(cfg.UTCOffsetHours),
		Writer:          snapshot.NewWriter(cfg.OutputPath),
		Metrics:         rec,
		MetricsTextfile: cfg.MetricsTextfile,
		Notifier:        notifications.NewSender(cfg.WebhookURL, cfg.JobName),
		Progress:        progress,
		Log:             log,
	}

	if cfg.HistoryEnabled {
		hlog := log.WithField("component", "history")
		pool, err := db.Connect(ctx, cfg.DSN())
		if err == nil {
			err = db.TestConnection(ctx, pool)
			if err == nil {
				err = db.EnsureSchema(ctx, pool)
			}
			if err != nil {
				pool.Close()
			}
		}
		if err != nil {
			hlog.WithError(err).Warn("history disabled: database unavailable")
		} else {
			c.pool = pool
			c.History = repository.NewSnapshotRepo(pool)
			c.Runner.History = c.History
			hlog.Infof("archiving snapshots to %s:%d/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
		}
	}

	return c, nil
}
