package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"birthday_notifier/internal/app"
	"birthday_notifier/internal/domain/notify"
	"birthday_notifier/internal/infra/cache"
	"birthday_notifier/internal/infra/config"
	idb "birthday_notifier/internal/infra/database"
	"birthday_notifier/internal/infra/httpapi"
	"birthday_notifier/internal/infra/logger"
	"birthday_notifier/internal/infra/mailer"
	"birthday_notifier/internal/infra/scheduler"
	"birthday_notifier/internal/infra/telegram"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Log
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Timezone: %s", cfg.LogLevel, cfg.Environment, cfg.Timezone)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	recipientRepo := idb.NewPostgresRecipientRepository(db)
	sendLogRepo := idb.NewPostgresSendLogRepository(db)
	log.Info("Repositories initialized.")

	// Initialize Notifier
	smtpNotifier := mailer.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	log.Infof("SMTP notifier initialized for relay %s:%d.", cfg.SMTPHost, cfg.SMTPPort)

	// Optional Telegram ops alerter
	var alerter notify.Alerter
	if cfg.TelegramToken != "" {
		tgAlerter, err := telegram.NewTelebotAlerter(cfg.TelegramToken, cfg.AdminChatID)
		if err != nil {
			log.Fatalf("FATAL: Could not create Telegram alerter: %v", err)
		}
		alerter = tgAlerter
		log.Info("Telegram ops alerter initialized.")
	} else {
		log.Info("Telegram ops alerts disabled (no TELEGRAM_TOKEN).")
	}

	// Optional Redis summary cache
	var summaryCache app.SummaryCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("FATAL: Could not connect to Redis: %v", err)
		}
		defer redisClient.Close()
		summaryCache = cache.NewRedisSummaryCache(redisClient, cfg.SummaryCacheTTL)
		log.Info("Redis summary cache initialized.")
	} else {
		log.Info("Summary cache disabled (no REDIS_ADDR).")
	}

	// Initialize Services
	dispatchService := app.NewDispatchService(recipientRepo, sendLogRepo, smtpNotifier, summaryCache, log)
	adminService := app.NewAdminService(recipientRepo, sendLogRepo)
	log.Info("Application services initialized.")

	// Initialize Scheduler
	dispatchScheduler := scheduler.NewDispatchScheduler(dispatchService, alerter, log, cfg.CronSpecDispatch, cfg.Location())
	dispatchScheduler.Start()

	// Initialize HTTP API
	handler := httpapi.NewHandler(dispatchService, adminService, cfg.Location())
	router := httpapi.InitRoutes(handler)
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Infof("HTTP API listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}()

	log.Info("Application setup complete. Scheduler and HTTP API are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	dispatchScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	// db.Close() is handled by defer
	log.Info("Application shut down gracefully.")
}
