// Package scheduler reruns the snapshot job on a fixed interval in server mode.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-data-fetcher/internal/job"
)

// Job is one refresh cycle.
type Job interface {
	Run(ctx context.Context) (*job.Result, error)
}

type RefreshConfig struct {
	Interval time.Duration // e.g. 1*time.Hour
	// RunTimeout bounds a single cycle.
	RunTimeout time.Duration
	// OnResult is called after every cycle, successful or not.
	OnResult func(res *job.Result, err error)
	Logger   logrus.FieldLogger
}

type RefreshScheduler struct {
	run Job
	cfg RefreshConfig
	log logrus.FieldLogger

	// cycle serializes runs so a manual trigger never overlaps a tick.
	cycle sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    sync.WaitGroup
}

func NewRefreshScheduler(j Job, cfg RefreshConfig) *RefreshScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RefreshScheduler{
		run: j,
		cfg: cfg,
		log: log.WithField("component", "scheduler"),
	}
}

// Start runs one cycle immediately, then one per interval until Stop.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.done.Add(1)
	go func() {
		defer s.done.Done()
		s.tick()

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()

	s.log.Infof("started (every %s)", s.cfg.Interval)
}

// Stop halts the ticker and waits for an in-flight cycle to finish.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.running = false
	s.mu.Unlock()

	s.done.Wait()
	s.log.Info("stopped")
}

func (s *RefreshScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow triggers a cycle outside the normal schedule.
func (s *RefreshScheduler) RunNow(ctx context.Context) (*job.Result, error) {
	s.log.Info("manual refresh triggered")
	return s.cycleOnce(ctx)
}

func (s *RefreshScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RunTimeout)
	defer cancel()
	if _, err := s.cycleOnce(ctx); err != nil {
		s.log.WithError(err).Error("refresh failed")
	}
}

func (s *RefreshScheduler) cycleOnce(ctx context.Context) (*job.Result, error) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	start := time.Now()
	res, err := s.run.Run(ctx)
	if err == nil && res != nil {
		s.log.WithFields(logrus.Fields{
			"live":    res.Live(),
			"total":   len(res.Outcomes),
			"elapsed": time.Since(start).Round(time.Millisecond).String(),
		}).Info("snapshot refreshed")
	}
	if s.cfg.OnResult != nil {
		s.cfg.OnResult(res, err)
	}
	return res, err
}
