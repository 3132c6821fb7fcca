package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"oral-scan/config"
	"oral-scan/internal/api/rest"
	"oral-scan/internal/api/telegram"
	app "oral-scan/internal/application"
	"oral-scan/internal/container"
	"oral-scan/internal/domain/port"
	"oral-scan/internal/infrastructure/logging"
	"oral-scan/internal/infrastructure/recommend"
	"oral-scan/internal/infrastructure/storage"
	"oral-scan/internal/infrastructure/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	// Хранилище истории
	history, err := storage.NewHistoryRepository(historyConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to open history storage: %v", err)
	}
	defer history.Close()

	detector, highlighter := buildDetector(cfg)

	appContainer := container.New(container.Deps{
		Users:       storage.NewMemoryUserRepository(),
		History:     history,
		Detector:    detector,
		Preparer:    vision.NewPreprocessor(cfg.MaxUploadBytes(), cfg.Detector.MaxSide),
		Highlighter: highlighter,
		Recommender: recommend.NewStatic(),
	}, cfg.HistoryDefaultLimit, app.DetectionConfig{MinConfidence: cfg.Detector.MinConfidence})

	router := rest.NewRouter(rest.Options{
		Services:       appContainer,
		AllowedOrigins: cfg.Origins(),
		Environment:    cfg.Environment,
		StorageDriver:  cfg.Storage.Driver,
		StoragePath:    storagePath(cfg),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Debug:          !cfg.IsProduction(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverExit := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":        srv.Addr,
			"environment": cfg.Environment,
			"storage":     cfg.Storage.Driver,
			"model":       detector.Name(),
			"model_ready": detector.Ready(),
		}).Info("Starting HTTP server")
		serverExit <- srv.ListenAndServe()
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer)
		if err != nil {
			log.WithError(err).Error("Failed to create telegram bot")
		} else {
			go func() {
				log.Info("Bot is running...")
				if err := bot.Run(ctx); err != nil {
					log.WithError(err).Error("Bot error")
				}
			}()
		}
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverExit:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Server exited unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	log.Info("Server shut down gracefully")
}

// buildDetector выбирает детектор по конфигурации; при ошибке сервис стартует без модели.
func buildDetector(cfg *config.Config) (port.LesionDetector, port.Highlighter) {
	painter := vision.NewBoxPainter()

	switch cfg.Detector.Kind {
	case "gocv":
		var labels []string
		if cfg.Detector.LabelsPath != "" {
			l, err := vision.LoadLabels(cfg.Detector.LabelsPath)
			if err != nil {
				log.WithError(err).Warn("Failed to load labels")
			}
			labels = l
		}
		d, err := vision.NewGoCVDetector(cfg.Detector.ModelPath, labels)
		if err != nil {
			log.WithError(err).Warn("Model not loaded, detection is disabled")
			return vision.Unavailable{Reason: err.Error()}, painter
		}
		return d, d

	default:
		if cfg.Detector.InferenceURL == "" {
			log.Warn("INFERENCE_URL is not set, detection is disabled")
			return vision.Unavailable{Reason: "inference url is not configured"}, painter
		}
		d := vision.NewRemoteDetector(vision.RemoteConfig{
			URL:             cfg.Detector.InferenceURL,
			HealthURL:       cfg.Detector.HealthURL,
			APIKey:          cfg.Detector.APIKey,
			ConfidenceScale: cfg.Detector.ConfidenceScale,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.CheckHealth(ctx); err != nil {
			log.WithError(err).Warn("Inference service is not healthy yet")
		}
		return d, painter
	}
}

func historyConfig(cfg *config.Config) storage.HistoryConfig {
	return storage.HistoryConfig{
		Driver:        cfg.Storage.Driver,
		Dir:           cfg.Storage.Dir,
		RedisAddr:     cfg.Storage.RedisAddr,
		RedisPassword: cfg.Storage.RedisPassword,
		RedisDB:       cfg.Storage.RedisDB,
		RedisPrefix:   cfg.Storage.RedisPrefix,
		SQLiteDSN:     cfg.Storage.SQLiteDSN,
	}
}

func storagePath(cfg *config.Config) string {
	switch cfg.Storage.Driver {
	case storage.DriverRedis:
		return cfg.Storage.RedisAddr
	case storage.DriverSQLite:
		return cfg.Storage.SQLiteDSN
	default:
		return cfg.Storage.Dir
	}
}
