package main

import (
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"premiumcalc/config"
	qhttp "premiumcalc/http"
	"premiumcalc/logging"
	"premiumcalc/ml"
	"premiumcalc/monitoring"
	"premiumcalc/quote"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Look for config in root even if run from cmd/
	path := *configPath
	if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
		if _, err := os.Stat(filepath.Join("..", path)); err == nil {
			path = filepath.Join("..", path)
		}
	}

	// 1. Load config
	cfg, err := config.Load(path, true)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logger.Sync()

	// 2. Load the model once; nothing else can run without it
	modelPath := cfg.Model.Path
	model, err := ml.NewLoader().Load(modelPath)
	switch {
	case errors.Is(err, ml.ErrModelNotFound):
		logger.Fatal("Model file not found. Ensure the artifact is in the app directory.",
			zap.String("path", modelPath), zap.Error(err))
	case err != nil:
		logger.Fatal("An error occurred loading the model", zap.String("path", modelPath), zap.Error(err))
	}
	info := ml.Describe(model)
	info.Path = modelPath
	logger.Info("model loaded",
		zap.String("path", modelPath),
		zap.String("type", info.ModelType),
		zap.Int("trees", info.Trees),
		zap.Strings("features", info.FeatureNames))

	metrics := monitoring.NewMetrics()
	quotes, err := quote.NewService(model, quote.Options{
		Rate:      cfg.Currency.Rate,
		Currency:  cfg.Currency.Code,
		CacheSize: cfg.Quote.CacheSize,
		Metrics:   metrics,
		Logger:    logger.Named("quote"),
	})
	if err != nil {
		logger.Fatal("model does not match the feature encoder", zap.Error(err))
	}
	logger.Info("currency conversion",
		zap.String("currency", quotes.Currency()),
		zap.Float64("rate", quotes.Rate()))

	if cfg.Model.Watch {
		watcher, err := monitoring.WatchArtifact(modelPath, logger.Named("artifact"), func(fsnotify.Op) {
			metrics.ObserveArtifactChange()
		})
		if err != nil {
			logger.Warn("model artifact watch disabled", zap.Error(err))
		} else {
			defer watcher.Close()
		}
	}

	// 3. Start HTTP server
	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, qhttp.Deps{
		Quotes:    quotes,
		Metrics:   metrics,
		ModelInfo: info,
		Logger:    logger.Named("http"),
	})
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 4. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}
