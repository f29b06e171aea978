package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/expertbridge/consult_platform/internal/app"
	"github.com/expertbridge/consult_platform/internal/config"
	"github.com/expertbridge/consult_platform/internal/controller/httpapi"
	"github.com/expertbridge/consult_platform/internal/notify"
	"github.com/expertbridge/consult_platform/internal/payment"
	"github.com/expertbridge/consult_platform/internal/repository"
	"github.com/expertbridge/consult_platform/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, "migrations")
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	expertRepo := repository.NewExpertRepository(pool)
	tagRepo := repository.NewTagRepository(pool)
	ruleRepo := repository.NewAvailabilityRuleRepository(pool)
	exceptionRepo := repository.NewDateExceptionRepository(pool)
	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	requestRepo := repository.NewRequestRepository(pool)
	matchRepo := repository.NewMatchRepository(pool)
	eventRepo := repository.NewProgressEventRepository(pool)
	reviewRepo := repository.NewReviewRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	threadRepo := repository.NewThreadRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	// Notification fan-out: email always when configured, Telegram mirrors
	// everything to the ops chat.
	var channels []notify.Channel
	if cfg.SendGridAPIKey != "" {
		channels = append(channels, notify.NewEmailChannel(cfg.SendGridAPIKey, cfg.EmailFrom))
	}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramChannel(cfg.TelegramToken, cfg.TelegramAdminChatID)
		if err != nil {
			logger.Fatal("Failed to create telegram channel", zap.Error(err))
		}
		channels = append(channels, tg)
	}
	notifier := notify.NewDispatcher(logger, channels...)

	charger := payment.NewClient(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey)

	// Services.
	userService := service.NewUserService(userRepo, auditRepo, notifier, logger)
	expertService := service.NewExpertService(expertRepo, tagRepo, userRepo, auditRepo, notifier, logger)
	availabilityService := service.NewAvailabilityService(ruleRepo, exceptionRepo, slotRepo, expertRepo, logger)
	bookingService := service.NewBookingService(
		service.BookingConfig{PaymentsEnabled: cfg.PaymentsEnabled},
		userRepo, expertRepo, slotRepo, bookingRepo, paymentRepo, threadRepo,
		auditRepo, notifier, charger, logger,
	)
	requestService := service.NewRequestService(requestRepo, matchRepo, eventRepo, userRepo, expertRepo, auditRepo, notifier, logger)
	reviewService := service.NewReviewService(reviewRepo, bookingRepo, expertRepo, logger)
	messagingService := service.NewMessagingService(threadRepo, messageRepo, bookingRepo, expertRepo, logger)

	scheduler := app.NewScheduler(availabilityService, cfg.SlotHorizonDays, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	api := httpapi.NewAPI(
		cfg.JWTSecret,
		logger,
		userService,
		expertService,
		availabilityService,
		bookingService,
		requestService,
		reviewService,
		messagingService,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
