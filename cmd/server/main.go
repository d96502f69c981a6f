package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"logistics-backend/internal/auth"
	"logistics-backend/internal/cache"
	"logistics-backend/internal/config"
	"logistics-backend/internal/database"
	"logistics-backend/internal/db"
	"logistics-backend/internal/handlers"
	"logistics-backend/internal/health"
	h "logistics-backend/internal/http"
	"logistics-backend/internal/logger"
	"logistics-backend/internal/middleware"
	"logistics-backend/internal/models"
	"logistics-backend/internal/repositories"
	"logistics-backend/internal/services"
	"logistics-backend/internal/storage"
	"logistics-backend/internal/timeutil"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	migrateOnly := flag.Bool("migrate", false, "run migrations and exit")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr, err := logger.New("logistics-backend", cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr, *migrateOnly); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := timeutil.SetLocation(cfg.Business.Timezone); err != nil {
		return fmt.Errorf("business timezone: %w", err)
	}

	pool, err := db.Connect(ctx, cfg, logr)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.NewMigrator(pool, logr).RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if migrateOnly {
		logr.Info("migrations complete")
		return nil
	}

	var cachePinger health.Pinger
	if cfg.Redis.Enabled {
		if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			logr.Warn("redis unavailable, running without cache", zap.Error(err))
		} else {
			defer cache.Close() //nolint:errcheck
			cachePinger = health.PingFunc(cache.Ping)
			logr.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	vatRate, err := decimal.NewFromString(cfg.Invoices.DefaultVATRate)
	if err != nil {
		return fmt.Errorf("invoices.default_vat_rate: %w", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	accountRepo := repositories.NewAccountRepository(pool)
	ledgerRepo := repositories.NewLedgerRepository(pool)
	companyRepo := repositories.NewCompanyRepository(pool)
	invoiceRepo := repositories.NewInvoiceRepository(pool)
	receiptRepo := repositories.NewReceiptRepository(pool)
	fleetRepo := repositories.NewFleetRepository(pool)

	// Services
	business := models.Party{
		Name:      cfg.Business.Name,
		Address:   cfg.Business.Address,
		VATNumber: cfg.Business.VATNumber,
		Phone:     cfg.Business.Phone,
		Email:     cfg.Business.Email,
	}
	jwtManager := auth.NewJWTManager(cfg)
	totpService := services.NewTOTPService(userRepo, cfg.Business.Name)
	userService := services.NewUserService(userRepo, jwtManager, totpService, logr)
	reportService := services.NewReportService(business, cfg.Business.CurrencySymbol)
	accountService := services.NewAccountService(accountRepo, cfg.Business.Currency, cfg.Business.CurrencySymbol, logr)
	ledgerService := services.NewLedgerService(accountRepo, ledgerRepo, logr)
	companyService := services.NewCompanyService(companyRepo, logr)
	invoiceService := services.NewInvoiceService(invoiceRepo, receiptRepo, companyRepo, reportService, business,
		services.PaymentPolicy{AllowOverpayment: cfg.Invoices.AllowOverpayment}, vatRate, logr)
	fleetService := services.NewFleetService(fleetRepo, logr)

	if cfg.Storage.Enabled {
		archive, err := storage.NewArchive(ctx, cfg, logr)
		if err != nil {
			logr.Warn("document archive disabled", zap.Error(err))
		} else {
			invoiceService.Archive = archive
			logr.Info("receipts archived to bucket", zap.String("bucket", cfg.Storage.Bucket))
		}
	}

	created, err := userService.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if created {
		logr.Info("bootstrap admin created", zap.String("email", cfg.Bootstrap.AdminEmail))
	}

	checker := health.NewHealthChecker(pool, cachePinger)
	router := h.NewRouter(h.Handlers{
		Auth:     handlers.NewAuthHandler(userService),
		TOTP:     handlers.NewTOTPHandler(totpService),
		Users:    handlers.NewUserHandler(userService),
		Accounts: handlers.NewAccountHandler(accountService, ledgerService, reportService),
		Company:  handlers.NewCompanyHandler(companyService),
		Invoices: handlers.NewInvoiceHandler(invoiceService),
		Fleet:    handlers.NewFleetHandler(fleetService),
		Expenses: handlers.NewExpenseHandler(fleetService, reportService),
		Health:   handlers.NewHealthHandler(checker),
	}, middleware.NewAuthMiddleware(userService), logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
