package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Kerhoff/DoseboT/internal/api"
	"github.com/Kerhoff/DoseboT/internal/config"
	"github.com/Kerhoff/DoseboT/internal/handlers"
	"github.com/Kerhoff/DoseboT/internal/metrics"
	"github.com/Kerhoff/DoseboT/internal/repository/postgres"
	"github.com/Kerhoff/DoseboT/internal/service"
	"github.com/Kerhoff/DoseboT/internal/telegram"
	"github.com/Kerhoff/DoseboT/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.Info("Starting DoseboT...")

	// Database
	db, err := config.NewDatabase(cfg.DatabaseURL, l)
	if err != nil {
		l.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(cfg.MigrationsPath); err != nil {
		l.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db.DB)
	medicationRepo := postgres.NewMedicationRepository(db.DB)
	overrideRepo := postgres.NewDoseOverrideRepository(db.DB)

	// Service layer
	svc := service.New(db.DB, l, userRepo, medicationRepo, overrideRepo)

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}

	// Register command handlers
	bot.RegisterCommand("start", handlers.NewStartHandler(l))
	bot.RegisterCommand("help", handlers.NewHelpHandler(l))

	// Medication handlers
	bot.RegisterCommand("addmed", handlers.NewAddMedHandler(svc, l))
	bot.RegisterCommand("meds", handlers.NewMedsHandler(svc, l))
	bot.RegisterCommand("delmed", handlers.NewDelMedHandler(svc, l))

	// Dose handlers
	bot.RegisterCommand("today", handlers.NewTodayHandler(svc, l))
	bot.RegisterCommand("mark", handlers.NewMarkHandler(svc, l))
	bot.RegisterCallback(handlers.DoseCallbackPrefix, handlers.NewDoseCallbackHandler(svc, l))

	// Analytics handlers
	bot.RegisterCommand("stats", handlers.NewStatsHandler(svc, l, cfg.ReportDays))
	bot.RegisterCommand("streak", handlers.NewStreakHandler(svc, l, cfg.StreakDays))
	bot.RegisterCommand("weekly", handlers.NewWeeklyHandler(svc, l, cfg.TrendWeeks))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		l.Info("Received shutdown signal...")
		cancel()
	}()

	// Prometheus endpoint on its own port
	go metrics.Serve(cfg.PrometheusPort, l)

	// HTTP server: JSON API plus the Telegram webhook endpoint
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, l)
	mux.Handle("/", apiServer.Handler())
	mux.HandleFunc("POST /telegram/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			l.Errorf("Failed to decode webhook update: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		bot.HandleWebhook(update)
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Webhook mode when WEBHOOK_URL is set, long polling otherwise
	if cfg.WebhookURL != "" {
		if err := bot.SetWebhook(cfg.WebhookURL + "/telegram/webhook"); err != nil {
			l.Fatalf("Failed to set webhook: %v", err)
		}
	} else {
		go func() {
			if err := bot.Start(ctx); err != nil {
				l.Errorf("Bot error: %v", err)
			}
		}()
	}

	l.Info("DoseboT started successfully")

	<-ctx.Done()

	l.Info("Shutting down HTTP server...")
	httpServer.Close()

	l.Info("DoseboT stopped")
}
