package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meta-checkout/internal/config"
	"meta-checkout/internal/database"
	"meta-checkout/internal/email"
	"meta-checkout/internal/handler"
	"meta-checkout/internal/identity"
	"meta-checkout/internal/payment"
	"meta-checkout/internal/repository"
	"meta-checkout/internal/router"
	"meta-checkout/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting checkout API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Apply pending schema migrations before opening the pool
	if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	tokenRepo := repository.NewTokenRepository(pool, logger)
	planRepo := repository.NewPlanRepository(pool, logger)
	ledgerRepo := repository.NewLedgerRepository(pool, logger)

	// Initialize email template loader with S3 and embedded fallback
	var templateLoader email.TemplateLoader = email.NewEmbeddedLoader()
	if cfg.Email.TemplateDir != "" {
		templateLoader = email.NewFallbackLoader(
			email.NewFileLoader(cfg.Email.TemplateDir, logger), templateLoader, logger)
	}
	if cfg.Email.S3Enabled {
		s3Loader, err := email.NewS3Loader(ctx, cfg.Email.S3Bucket, cfg.Email.S3Region,
			cfg.Email.S3Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 template loader, falling back to local templates only")
		} else {
			templateLoader = email.NewFallbackLoader(s3Loader, templateLoader, logger)
		}
	}
	renderer := email.NewRenderer(templateLoader, logger)
	sender := email.NewAPISender(cfg.Email, logger)

	// Initialize outbound providers
	gateway := payment.NewClient(cfg.Payment, logger)
	identityProvider := identity.NewClient(cfg.Identity, logger)

	// Initialize services
	resumeService := service.NewResumeService(tokenRepo, orderRepo, cfg.Checkout, logger)
	checkoutService := service.NewCheckoutService(orderRepo, resumeService, gateway,
		sender, renderer, cfg.Checkout, logger)
	lifecycleService := service.NewLifecycleService(orderRepo, tokenRepo, resumeService,
		sender, renderer, cfg.Checkout, logger)
	provisionService := service.NewProvisionService(orderRepo, tokenRepo, planRepo,
		ledgerRepo, identityProvider, sender, renderer, cfg.Checkout, logger)

	// Start the abandoned-checkout reminder sweep
	reminderWorker := service.NewReminderWorker(orderRepo, resumeService,
		sender, renderer, cfg.Checkout, logger)
	reminderWorker.Start(ctx)

	// Initialize HTTP handlers
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, logger)
	resumeHandler := handler.NewResumeHandler(resumeService, checkoutService, logger)
	magicHandler := handler.NewMagicHandler(provisionService, logger)
	webhookHandler := handler.NewWebhookHandler(lifecycleService, cfg.Payment.WebhookSecret, logger)

	// Initialize router
	mux := router.New(checkoutHandler, resumeHandler, magicHandler, webhookHandler, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown complete")
	}

	return nil
}
