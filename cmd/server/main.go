package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appprinting "github.com/printpay/backend/internal/application/printing"
	"github.com/printpay/backend/internal/infrastructure/config"
	"github.com/printpay/backend/internal/infrastructure/logger"
	"github.com/printpay/backend/internal/infrastructure/payment"
	infraprinting "github.com/printpay/backend/internal/infrastructure/printing"
	"github.com/printpay/backend/internal/infrastructure/storage"
	"github.com/printpay/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	pricePerPage, err := decimal.NewFromString(cfg.Pricing.PricePerPage)
	if err != nil {
		log.Fatal("invalid price_per_page", zap.String("value", cfg.Pricing.PricePerPage), zap.Error(err))
	}

	payments, err := payment.NewMercadoPagoAdapter(&payment.MercadoPagoConfig{
		AccessToken: cfg.Payment.AccessToken,
		BaseURL:     cfg.Payment.BaseURL,
		PayerEmail:  cfg.Payment.PayerEmail,
		Description: cfg.Payment.Description,
		Timeout:     cfg.Payment.Timeout,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize payment adapter", zap.Error(err))
	}

	cups := infraprinting.NewCUPSClient(infraprinting.CUPSConfig{
		Host:           cfg.CUPS.Host,
		Port:           cfg.CUPS.Port,
		UseTLS:         cfg.CUPS.UseTLS,
		RequestTimeout: cfg.CUPS.RequestTimeout,
	}, log)

	uploads, err := storage.NewTempUploadStore(cfg.Storage.UploadDir, log)
	if err != nil {
		log.Fatal("failed to initialize upload store", zap.Error(err))
	}

	// watchCtx outlives individual requests; cancelling it on shutdown stops
	// every payment watcher still polling
	watchCtx, stopWatchers := context.WithCancel(context.Background())
	defer stopWatchers()

	var watcher *appprinting.PaymentWatcher
	if cfg.Watcher.Enabled {
		watcher = appprinting.NewPaymentWatcher(payments, cfg.Watcher.PollInterval, cfg.Watcher.MaxDuration, log)
	}

	service := appprinting.NewPrintOrderService(
		pricePerPage,
		payments,
		cups,
		cups,
		infraprinting.NewPDFPageCounter(),
		uploads,
		watcher,
		watchCtx,
		log,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router.New(cfg, service, log),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()
	log.Info("server listening", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	stopWatchers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
