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
	httpapi "medrestock/internal/http"
	"medrestock/internal/inventory"
	"medrestock/internal/restock"
	"medrestock/pkg/logger"
	"medrestock/pkg/metrics"
)

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

	m := metrics.NewCollector("restock", prometheus.DefaultRegisterer)
	client := inventory.New(cfg.Inventory, cfg.Breaker, log)
	workflow := restock.NewWorkflow(client, cfg.Poll, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workflow.Activate(ctx)
	defer workflow.Deactivate()

	console := httpapi.NewConsole(workflow, m, log)
	httpServer := &http.Server{
		Addr:         cfg.Console.Addr,
		Handler:      console.Engine(),
		ReadTimeout:  cfg.Console.ReadTimeout,
		WriteTimeout: cfg.Console.WriteTimeout,
	}

	go func() {
		log.Info("restock console listening",
			zap.String("addr", httpServer.Addr),
			zap.String("inventory", cfg.Inventory.BaseURL),
			zap.Duration("poll_interval", cfg.Poll.Interval),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down restock console")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Console.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
