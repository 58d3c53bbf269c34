package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"deferred_notifier/internal/app"
	"deferred_notifier/internal/domain/push"
	"deferred_notifier/internal/infra/config"
	idb "deferred_notifier/internal/infra/database"
	"deferred_notifier/internal/infra/httpapi"
	"deferred_notifier/internal/infra/logger"
	"deferred_notifier/internal/infra/pushover"
	"deferred_notifier/internal/infra/scheduler"
	"deferred_notifier/internal/infra/telegram"
	"deferred_notifier/internal/timeutil"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"db_driver":     cfg.DBDriver,
		"push_provider": cfg.PushProvider,
		"tick_interval": cfg.TickInterval.String(),
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeDB, err := idb.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not open database")
	}
	defer closeDB()
	mainLogger.Info("Database ready")

	clock := timeutil.SystemClock{}

	var bot *telebot.Bot
	if cfg.TelegramToken != "" {
		bot, err = telebot.NewBot(telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) {
				entry := logger.Component("telebot").WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("Telegram handler error")
			},
		})
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
	}

	var sender push.Sender
	switch cfg.PushProvider {
	case config.ProviderTelegram:
		sender = telegram.NewSender(bot, cfg.TelegramChatID, logger.Component("telegram_sender"))
	default:
		sender = pushover.NewClient(pushover.Config{
			Token:         cfg.PushoverToken,
			User:          cfg.PushoverUser,
			URL:           cfg.PushoverURL,
			Timeout:       cfg.PushTimeout,
			RatePerMinute: cfg.PushRatePerMinute,
		}, clock, logger.Component("pushover"))
	}

	notificationService := app.NewNotificationService(repo, clock, logger.Component("notification_service"))
	reconciler := app.NewReconciler(repo, sender, clock, logger.Component("reconciler"))

	notifScheduler := scheduler.NewNotificationScheduler(reconciler, cfg.TickInterval, logger.Component("scheduler"))
	if err := notifScheduler.Start(ctx); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	if bot != nil {
		cmds := telegram.NewAdminCommands(notificationService, cfg.AdminTelegramID, clock, logger.Component("telegram_admin"))
		telegram.RegisterBotCommands(bot, cmds)
		telegram.RegisterAdminHandlers(ctx, bot, cmds)
		go bot.Start()
		mainLogger.Info("Telegram bot started")
	}

	if cfg.Environment == "production" || cfg.Environment == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.InitRoutes(
		httpapi.NewNotificationHandler(notificationService, logger.Component("http")),
		cfg.CORSOrigin,
		logger.Component("http"),
	)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      40 * time.Second,
	}
	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	mainLogger.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Error("HTTP server shutdown failed")
	}
	if bot != nil {
		bot.Stop()
	}
	notifScheduler.Stop()
	mainLogger.Info("Application shut down gracefully.")
}
