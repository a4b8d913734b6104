package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Rioto3-org/delta-station/config"
	"github.com/Rioto3-org/delta-station/pipeline"
	"github.com/Rioto3-org/delta-station/scheduler"
	"github.com/Rioto3-org/delta-station/scraper/mlit"
	"github.com/Rioto3-org/delta-station/services"
	"github.com/Rioto3-org/delta-station/storage"
	"github.com/Rioto3-org/delta-station/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	loop := flag.Bool("loop", false, "keep harvesting on FETCH_INTERVAL instead of a single pass")
	report := flag.Bool("report", false, "print a summary of stored observations and exit")
	flag.Parse()

	cfg := config.Load()

	logger, err := utils.NewFileLogger(cfg.LogFile)
	if err != nil {
		logger = utils.NewLogger()
		logger.Warn("Log file unavailable, logging to console only: %v", err)
	}
	defer logger.Close()

	logger.Info("=== Delta station observation collector ===")
	logger.Info("Station page: %s", cfg.StationURL)

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("Storage initialization failed: %v", err)
		return 1
	}
	defer store.Close()

	if *report {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		defer cancel()

		observations, err := store.Observations(ctx)
		if err != nil {
			logger.Error("Failed to read observations: %v", err)
			return 1
		}
		svc := services.NewReportService(logger)
		svc.Print(svc.BuildSummary(observations))
		return 0
	}

	client := mlit.NewClient(cfg.HTTPTimeout, cfg.ImageDir, logger)

	var audit storage.RawRecorder
	if csvWriter, err := storage.NewRawCSVWriter(cfg.RawCSVPath); err != nil {
		logger.Warn("Raw audit log disabled: %v", err)
	} else {
		audit = csvWriter
		defer csvWriter.Close()
	}

	p := pipeline.New(pipeline.Params{
		StationURL: cfg.StationURL,
		Fetcher:    client,
		Images:     client,
		Extractor:  mlit.NewExtractor(clockwork.NewRealClock()),
		Validator:  services.NewValidator(logger),
		Store:      store,
		Audit:      audit,
		Logger:     logger,
	})

	if *loop {
		sched := scheduler.New(p, cfg.FetchInterval, runTimeout(cfg), logger)
		if err := sched.Start(); err != nil {
			logger.Error("Scheduler failed to start: %v", err)
			return 1
		}
		logger.Info("Harvesting every %v — Ctrl-C to stop", cfg.FetchInterval)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		sched.Stop()
		logger.Info("Stopped")
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout(cfg))
	defer cancel()

	outcome, err := p.Run(ctx)
	if err != nil {
		logger.Error("Run failed: %v", err)
		return 1
	}

	switch outcome {
	case pipeline.OutcomeInserted:
		logger.Info("Done — new observation stored")
	case pipeline.OutcomeDuplicate:
		logger.Info("Done — source unchanged, duplicate skipped")
	}
	return 0
}

// runTimeout bounds one full pipeline run: page fetch, image fetch and a
// handful of storage round trips.
func runTimeout(cfg *config.Config) time.Duration {
	return 3 * cfg.HTTPTimeout
}

func openStore(cfg *config.Config, logger *utils.Logger) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("Using in-memory storage — nothing survives this process")
		return storage.NewMemoryStore(), nil
	case "postgres":
		retry := &utils.RetryConfig{
			MaxAttempts: cfg.ConnectRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return storage.NewPostgresStore(ctx, cfg.DSN(), retry)
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
