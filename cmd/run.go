package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"

	"osintbot/bot"
	"osintbot/config"
	"osintbot/database"
	"osintbot/repository"
	"osintbot/search"
	"osintbot/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting osint bot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Bot identity comes from the bot_config table so the admin dashboard
	// can change it without a redeploy.
	botConfig, err := repository.NewBotConfigRepository(db).Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bot config: %w", err)
	}

	// Initialize unit of work factory and services
	uowFactory := repository.NewUnitOfWorkFactory(db)
	ledgerService := service.NewLedgerService(uowFactory)
	redeemService := service.NewRedeemService(uowFactory)
	reportService := service.NewReportService(uowFactory, cfg.ReportTTL)
	stateService := service.NewStateService(uowFactory)
	log.Info("Services initialized successfully")

	// Initialize Telegram client
	telegram, err := bot.NewTelegramClient(botConfig.BotToken, botConfig.RequiredChannel)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}

	botUsername := botConfig.BotUsername
	if botUsername == "" {
		botUsername = telegram.Username()
	}
	log.WithFields(log.Fields{"bot_username": botUsername}).Info("Telegram client initialized")

	// Initialize search provider
	provider := search.NewClient(botConfig.APIBaseURL, botConfig.APIGlobalToken)

	dispatcher := bot.NewDispatcher(
		bot.Config{
			Username:        botUsername,
			RequiredChannel: botConfig.RequiredChannel,
			AdminContact:    botConfig.AdminContact,
		},
		telegram,
		telegram,
		provider,
		ledgerService,
		redeemService,
		reportService,
		stateService,
	)

	// Schedule periodic eviction of expired search reports
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(func() {
			sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			evicted, err := reportService.EvictExpired(sweepCtx)
			if err != nil {
				log.WithFields(log.Fields{"error": err}).Error("Report eviction sweep failed")
				return
			}
			if evicted > 0 {
				log.WithFields(log.Fields{"evicted": evicted}).Info("Evicted expired search reports")
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule report eviction: %w", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.WithFields(log.Fields{"error": err}).Error("Error shutting down scheduler")
		}
	}()

	// Start the webhook server
	server := bot.NewServer(bot.ServerConfig{
		Addr:           cfg.ListenAddr,
		HandlerTimeout: cfg.HandlerTimeout,
	}, dispatcher)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	log.Infof("Bot is running in %s mode...", cfg.Environment)

	select {
	case err := <-errChan:
		return fmt.Errorf("webhook server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Info("Shutting down bot...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithFields(log.Fields{"error": err}).Error("Error shutting down webhook server")
	}

	log.Info("Shutdown completed")
	return nil
}
