// Command fetcher runs one snapshot cycle and exits: 0 when market_data.json
// was written, 1 otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kjannette/market-data-fetcher/internal/config"
	"github.com/kjannette/market-data-fetcher/internal/job"
)

func main() {
	os.Exit(run())
}

func run() (code int) {
	defer func() {
		if p := recover(); p != nil {
			fmt.Fprintf(os.Stderr, "\n✗ General error: %v\n", p)
			code = 1
		}
	}()

	job.Banner(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := job.Build(ctx, cfg, log, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n✗ General error: %v\n", err)
		return 1
	}
	defer c.Close()

	res, err := c.Runner.Run(ctx)
	switch {
	case err == nil:
		job.PrintSummary(os.Stdout, res)
		return 0
	case errors.Is(err, job.ErrWrite):
		// The runner already printed the write error.
		return 1
	default:
		fmt.Fprintf(os.Stderr, "\n✗ General error: %v\n", err)
		log.WithError(err).Error("run aborted")
		return 1
	}
}
