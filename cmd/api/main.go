package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/l33tdawg/cfp-directory-plugins/internal/config"
	"github.com/l33tdawg/cfp-directory-plugins/internal/database"
	"github.com/l33tdawg/cfp-directory-plugins/internal/datastore"
	"github.com/l33tdawg/cfp-directory-plugins/internal/handler"
	"github.com/l33tdawg/cfp-directory-plugins/internal/middleware"
	"github.com/l33tdawg/cfp-directory-plugins/internal/models"
	"github.com/l33tdawg/cfp-directory-plugins/internal/queue"
	"github.com/l33tdawg/cfp-directory-plugins/internal/repository"
	"github.com/l33tdawg/cfp-directory-plugins/internal/router"
	"github.com/l33tdawg/cfp-directory-plugins/internal/service"
	"github.com/l33tdawg/cfp-directory-plugins/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Event{}, &models.ReviewCriterion{}, &models.Submission{}, &models.Review{}, &models.ServiceAccount{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	store := datastore.New(redisClient, cfg.DataStoreSecret, logger)
	jobs := queue.New(redisClient, cfg.QueuePrefix, logger)

	reviewRepo := repository.NewReviewRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	accountRepo := repository.NewServiceAccountRepository(db)

	if _, err := accountRepo.GetOrCreate(context.Background(), service.ReviewerAccountName, ""); err != nil {
		log.Fatalf("failed to provision reviewer account: %v", err)
	}

	settingsService := service.NewSettingsService(store, logger)
	costTracker := service.NewCostTracker(redisClient, logger)
	reviewService := service.NewReviewService(service.ReviewServiceDeps{
		Reviews:     reviewRepo,
		Submissions: submissionRepo,
		Events:      eventRepo,
		Accounts:    accountRepo,
		Settings:    settingsService,
		Costs:       costTracker,
		Queue:       jobs,
		Redis:       redisClient,
		NATS:        natsConn,
		Cooldown:    cfg.ReviewCooldown,
		ScanLimit:   cfg.QueueScanLimit,
	}, logger)
	reviewService.Register(jobs)

	urlValidator := webhook.NewValidator(cfg.AllowInsecureWebhooks, net.DefaultResolver, logger)
	registry := webhook.NewRegistry(store, logger)
	sender := webhook.NewSender(urlValidator, cfg.WebhookTimeout, logger)
	notifier := webhook.NewNotifier(registry, sender, logger)
	if natsConn != nil {
		sub, err := notifier.Subscribe(natsConn, service.SubjectReviewCompleted)
		if err != nil {
			log.Fatalf("failed to subscribe to review events: %v", err)
		}
		defer sub.Unsubscribe()
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go jobs.Start(workerCtx)

	settingsHandler := handler.NewSettingsHandler(settingsService, logger)
	reviewHandler := handler.NewReviewHandler(reviewService, jobs, logger)
	costHandler := handler.NewCostHandler(costTracker, settingsService, logger)
	webhookHandler := handler.NewWebhookHandler(registry, urlValidator, sender, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SettingsHandler: settingsHandler,
		ReviewHandler:   reviewHandler,
		CostHandler:     costHandler,
		WebhookHandler:  webhookHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, stopWorker)
}

func waitForShutdown(app *fiber.App, stopWorker context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
