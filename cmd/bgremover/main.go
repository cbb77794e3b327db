// Package main запускает HTTP-сервер сервиса удаления фона.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/bgremover/internal/config"
	"github.com/mmeshcher/bgremover/internal/handler"
	"github.com/mmeshcher/bgremover/internal/middleware"
	"github.com/mmeshcher/bgremover/internal/razorpay"
	"github.com/mmeshcher/bgremover/internal/removebg"
	"github.com/mmeshcher/bgremover/internal/repository"
	"github.com/mmeshcher/bgremover/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		sugar.Warn("razorpay keys are not set, payment endpoints will fail")
	}
	if cfg.RemoveBGAPIKey == "" {
		sugar.Warn("remove.bg api key is not set, cutout endpoints will fail")
	}

	// Журнал платежей необязателен.
	var journal service.Journal
	if cfg.DatabaseURI != "" {
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		journal = repo
	}

	gateway := razorpay.NewClient(cfg.RazorpayAPIURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	remover := removebg.NewClient(cfg.RemoveBGAPIURL, cfg.RemoveBGAPIKey)

	svc := service.NewService(gateway, remover, journal, cfg.RazorpayKeySecret, logger)
	defer svc.Close()

	premium := middleware.NewPremiumMiddleware(cfg.PremiumSecret, cfg.PremiumTTL)
	h := handler.NewHandler(svc, logger, premium, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting bgremover server", "addr", cfg.RunAddress, "journal", journal != nil)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
