package main

import (
	"fmt"
	"os"

	"github.com/amerigo/quote-service/internal/attribution"
	"github.com/amerigo/quote-service/internal/auth"
	"github.com/amerigo/quote-service/internal/config"
	"github.com/amerigo/quote-service/internal/db"
	"github.com/amerigo/quote-service/internal/diagnostics"
	"github.com/amerigo/quote-service/internal/distance"
	"github.com/amerigo/quote-service/internal/email"
	"github.com/amerigo/quote-service/internal/excel"
	"github.com/amerigo/quote-service/internal/health"
	httphandler "github.com/amerigo/quote-service/internal/http"
	"github.com/amerigo/quote-service/internal/http/middleware"
	"github.com/amerigo/quote-service/internal/location"
	"github.com/amerigo/quote-service/internal/logger"
	"github.com/amerigo/quote-service/internal/pdf"
	"github.com/amerigo/quote-service/internal/pricing"
	"github.com/amerigo/quote-service/internal/repository"
	"github.com/amerigo/quote-service/internal/service"
	"github.com/amerigo/quote-service/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	// Storage is optional: with no DSN the service still quotes and relays,
	// it just cannot export or render stored quotes.
	var quoteRepo *repository.QuoteRepository
	if cfg.DB.DSN != "" {
		database, err := db.New(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect database")
		}
		quoteRepo = repository.NewQuoteRepository(database)
	} else {
		log.Warn().Msg("DB_DSN not set, submission storage disabled")
	}

	locations, err := location.Load(cfg.Locations.DataPath)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Locations.DataPath).Msg("location data unavailable, search disabled")
		locations = location.NewIndex(nil)
	}

	recorder := diagnostics.NewRecorder(cfg.Diagnostics.Capacity)
	dispatcher := webhook.NewDispatcher(webhook.Config{
		LeadURL:      cfg.Webhook.LeadURL,
		OrderURL:     cfg.Webhook.OrderURL,
		AlternateURL: cfg.Webhook.AlternateURL,
		UserAgent:    cfg.Webhook.UserAgent,
		Timeout:      cfg.Webhook.Timeout,
		RetryDelay:   cfg.Webhook.RetryDelay,
	}, recorder, log)
	notifier := attribution.NewNotifier(cfg.Webhook.AnalyticsURL, cfg.Webhook.UserAgent, log)

	mailer := email.NewMailer(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}, log)
	if !mailer.Enabled() {
		log.Warn().Msg("SMTP_HOST not set, confirmation emails disabled")
	}

	leadService := service.NewLeadService(
		pricing.NewEngine(log),
		quoteRepo,
		dispatcher,
		notifier,
		mailer,
		pdf.NewGenerator(),
		excel.NewGenerator(),
		log,
	)

	distanceService := distance.New(cfg.Distance.BaseURL, cfg.Distance.APIKey, nil)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(leadService, distanceService, locations, recorder, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	if cfg.Health.Enabled {
		checker := health.NewChecker(
			[]string{cfg.Webhook.LeadURL, cfg.Webhook.OrderURL},
			cfg.Health.Schedule,
			recorder,
			log,
		)
		if err := checker.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start webhook health checks")
		}
		defer checker.Stop()
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting quote service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
