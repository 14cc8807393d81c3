package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"imdcheck/cmd/controllers"
	"imdcheck/internal/config"
	"imdcheck/internal/repo"
	"imdcheck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"
)

const (
	defaultConfigPath = "config.json"
	probeTimeout      = 30 * time.Second
)

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal(newLogger(false), "load config", err)
	}

	log := newLogger(cfg.Verbose)

	db, err := repo.Connect(cfg.DatasetDriver, cfg.DatasetDSN)
	if err != nil {
		fatal(log, "connect to dataset", err)
	}

	if err := repo.VerifyDataset(db, cfg.PostcodeTable, cfg.DeprivationTable); err != nil {
		fatal(log, "verify dataset", err)
	}

	lookupService, err := services.NewLookupService(db, log, services.LookupOptions{
		PostcodeTable:    cfg.PostcodeTable,
		DeprivationTable: cfg.DeprivationTable,
		BatchSize:        cfg.BatchSize,
	})
	if err != nil {
		fatal(log, "create lookup service", err)
	}

	exportService, err := services.NewExportService()
	if err != nil {
		fatal(log, "create export service", err)
	}

	probeService, err := services.NewProbeService(db, log, cfg.PostcodeTable, cfg.DeprivationTable)
	if err != nil {
		fatal(log, "create probe service", err)
	}

	status, err := runProbe(probeService)
	if err != nil {
		fatal(log, "probe dataset", err)
	}
	log.Info("dataset loaded", "driver", cfg.DatasetDriver, "postcodes", status.Postcodes, "areas", status.Areas)

	lookupController, err := controllers.NewLookupController(lookupService, exportService, log)
	if err != nil {
		fatal(log, "create lookup controller", err)
	}

	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), controllers.RequestLogger(log))

	if err := controllers.RegisterHealthRoutes(router, probeService); err != nil {
		fatal(log, "register health routes", err)
	}
	if err := lookupController.RegisterRoutes(router); err != nil {
		fatal(log, "register lookup routes", err)
	}

	scheduler, err := startCron(probeService, cfg.ProbeSchedule, log)
	if err != nil {
		fatal(log, "start cron", err)
	}
	defer scheduler.Stop()

	log.Info("listening", "address", cfg.Addr)
	if err := router.Run(cfg.Addr); err != nil {
		fatal(log, "run server", err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

type datasetProber interface {
	Probe(ctx context.Context) (services.DatasetStatus, error)
}

func runProbe(prober datasetProber) (services.DatasetStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	return prober.Probe(ctx)
}

func startCron(prober datasetProber, schedule string, log *slog.Logger) (*cron.Cron, error) {
	if prober == nil {
		return nil, errors.New("probe service is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}

	scheduler := cron.New()

	if _, err := scheduler.AddFunc(schedule, func() {
		if _, err := runProbe(prober); err != nil {
			log.Error("probe dataset", "error", err)
		}
	}); err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}
