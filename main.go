package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"modelserve/config"
	qhttp "modelserve/http"
	"modelserve/logging"
	"modelserve/ml"
	"modelserve/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, level, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load model; failure is fatal
	model, err := ml.LoadModel(cfg.Model.Dir)
	if err != nil {
		logger.Fatal("failed to load model", zap.String("dir", cfg.Model.Dir), zap.Error(err))
	}
	logger.Info("model loaded",
		zap.String("dir", model.Path()),
		zap.String("flavor", model.Flavor()),
		zap.Int("n_features", model.NumFeatures()),
		zap.Bool("probability", model.SupportsProbability()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// only the log level is reloadable
	if _, err := os.Stat(*configPath); err == nil {
		err := config.Watch(ctx, *configPath, func(next *config.Config) {
			if err := logging.SetLevel(level, next.Log.Level); err != nil {
				logger.Warn("ignoring invalid log level", zap.String("level", next.Log.Level), zap.Error(err))
				return
			}
			logger.Info("log level updated", zap.String("level", next.Log.Level))
		}, func(err error) {
			logger.Warn("config reload failed", zap.Error(err))
		})
		if err != nil {
			logger.Warn("config watch disabled", zap.Error(err))
		}
	}

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:         cfg.Http.Port,
		Timeout:      cfg.Http.Timeout,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	}, qhttp.Dependencies{
		Dispatcher: ml.NewDispatcher(model),
		Logger:     logger,
		Stats:      monitoring.NewCollector(),
		History:    qhttp.NewHistory(cfg.Form.HistorySize),
	})
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 4. Handle graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
