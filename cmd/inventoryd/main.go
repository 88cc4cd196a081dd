package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"medrestock/internal/config"
	"medrestock/internal/events"
	httpapi "medrestock/internal/http"
	"medrestock/internal/repository"
	"medrestock/internal/service"
	"medrestock/pkg/logger"
	"medrestock/pkg/metrics"

	_ "medrestock/docs"
)

// @title       Inventory API
// @version     1.0
// @description Authoritative medication inventory and restock order service.
// @host        localhost:9091
// @BasePath    /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Environment == "production" && !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.Kafka.Enabled() {
		kp, err := events.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			log.Fatal("failed to connect to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.Error(err))
		}
		publisher = kp
		log.Info("publishing restock events to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	store := repository.NewMemoryStore()
	ordersRepo := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)
	m := metrics.NewCollector("inventory", prometheus.DefaultRegisterer)

	medsSvc := service.NewMedicationService(store, tx, log)
	restockSvc := service.NewRestockService(ordersRepo, store, tx, publisher, m, log)

	srv := httpapi.NewServer(medsSvc, restockSvc, m, log)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("inventory service listening",
			zap.String("addr", httpServer.Addr),
			zap.String("env", cfg.App.Environment),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down inventory service")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
