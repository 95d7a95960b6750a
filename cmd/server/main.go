package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	adapterrepo "github.com/jsiptv/mobipay/internal/adapter/repository"
	"github.com/jsiptv/mobipay/internal/config"
	"github.com/jsiptv/mobipay/internal/domain/repository"
	"github.com/jsiptv/mobipay/internal/infrastructure/database"
	httpServer "github.com/jsiptv/mobipay/internal/infrastructure/http"
	"github.com/jsiptv/mobipay/internal/infrastructure/provider/promax"
	"github.com/jsiptv/mobipay/internal/logger"
	"github.com/jsiptv/mobipay/internal/notifier"
	"github.com/jsiptv/mobipay/internal/receipts"
	"github.com/jsiptv/mobipay/internal/usecase"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Ledger backend: volatile by default, postgres when configured
	var ledger repository.TransactionLedger
	if cfg.Database.Driver == "postgres" {
		db, err := database.NewConnection(&cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := database.Close(db, zapLogger); err != nil {
				zapLogger.Error("Failed to close database connection", zap.Error(err))
			}
		}()

		if err := database.Migrate(db, zapLogger); err != nil {
			zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
		}

		ledger = adapterrepo.NewPostgresLedger(db, zapLogger)
	} else {
		zapLogger.Warn("Using in-memory ledger; reservations do not survive a restart")
		ledger = adapterrepo.NewMemoryLedger()
	}

	clients := adapterrepo.NewMemoryClientRegistry()
	panel := promax.NewClient(&cfg.Promax, zapLogger)

	receiptGen, err := receipts.NewGenerator(cfg.Receipts.Dir)
	if err != nil {
		zapLogger.Fatal("Failed to initialize receipt generator", zap.Error(err))
	}

	mailer := notifier.NewMailer(cfg.Email, zapLogger)
	pricing := usecase.NewPricingService()
	provisioning := usecase.NewProvisioningService(ledger, clients, panel, pricing, receiptGen, mailer, zapLogger)
	registration := usecase.NewRegistrationService(panel, clients, receiptGen, mailer, zapLogger)

	srv := httpServer.NewServer(cfg, zapLogger, httpServer.Dependencies{
		Ledger:       ledger,
		Clients:      clients,
		Panel:        panel,
		Pricing:      pricing,
		Provisioning: provisioning,
		Registration: registration,
		Receipts:     receiptGen,
		Notifier:     mailer,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}
