// Command scenarios runs the canonical supervision scenarios from the
// command line and reports their observable outcomes. With a metrics
// address configured it also serves scope metrics over Prometheus.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NetPo4ki/go-supervise/observe/prom"
	"github.com/NetPo4ki/go-supervise/scenario"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "scenarios:", err)
		os.Exit(1)
	}
}

func run(names []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	// Scenario 6 never completes within its watchdog and leaks its task;
	// it runs only when named explicitly.
	if len(names) == 0 {
		names = []string{"1", "2", "3", "4", "5"}
	}

	reg := prometheus.NewRegistry()
	obs := prom.New(reg)

	if cfg.Metrics.Addr != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, r); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	runner := scenario.New(
		scenario.WithSink(scenario.SlogSink(logger)),
		scenario.WithDurations(cfg.Durations.Slow, cfg.Durations.Fast),
		scenario.WithWatchdog(cfg.Durations.Watchdog),
		scenario.WithTicInterval(cfg.Durations.Tic),
		scenario.WithObserver(obs),
	)

	// An interrupt plays the role of back navigation: it cancels the root
	// scope under every scenario. Cooperative tasks wind down; a runaway
	// task will not.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		runner.CancelAll()
	}()

	for _, name := range names {
		logger.Info("running scenario", "name", name)
		out, err := runner.Run(ctx, name)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", name, err)
		}
		logger.Info("scenario done", "name", name, "outcome", out.String())
	}
	return nil
}

func newLogger(cfg LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(h)
}
