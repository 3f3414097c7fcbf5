package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/market-data-fetcher/internal/api"
	"github.com/kjannette/market-data-fetcher/internal/config"
	"github.com/kjannette/market-data-fetcher/internal/job"
	"github.com/kjannette/market-data-fetcher/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║      Market Data Fetcher Server      ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()
	log := cfg.Logger()

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := job.Build(ctx, cfg, log, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[JOB] Build failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		c.Close()
		fmt.Println("[DB] Connection pool closed")
	}()

	// 1. API server
	opts := api.Options{
		Port:       cfg.APIPort,
		CORSOrigin: cfg.CORSAllowOrigin,
		Metrics:    c.Metrics.Handler(),
		Logger:     log,
	}
	if c.History != nil {
		opts.History = c.History
	}
	srv := api.NewServer(cfg.OutputPath, opts)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// 2. Refresh scheduler (first cycle runs immediately)
	sched := scheduler.NewRefreshScheduler(c.Runner, scheduler.RefreshConfig{
		Interval: cfg.RefreshInterval(),
		Logger:   log,
		OnResult: func(res *job.Result, err error) {
			if err == nil {
				job.PrintSummary(os.Stdout, res)
			}
		},
	})
	sched.Start()

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")
	fmt.Println("Shutdown complete")
}
