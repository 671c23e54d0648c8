package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"campaigndash/internal/delivery"
	"campaigndash/internal/infrastructure"
	"campaigndash/internal/usecase"
	"campaigndash/pkg/config"
	"campaigndash/pkg/logger"
	"campaigndash/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("Invalid timezone")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	repo := infrastructure.NewCampaignRepository(log)
	decoder := infrastructure.NewFileDecoder(loc, log)
	service := usecase.NewCampaignService(repo, decoder, loc, log, m)

	handlers := delivery.NewHTTPHandlers(service, log, m, cfg.Ingest.MaxUploadBytes)
	router := delivery.NewHTTPRouter(handlers, log, m, prometheus.DefaultGatherer, cfg).SetupRoutes()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(map[string]any{
			"port":     cfg.Server.Port,
			"timezone": loc.String(),
		}).Info("Starting server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
		os.Exit(1)
	}

	log.Info("Server stopped")
}
