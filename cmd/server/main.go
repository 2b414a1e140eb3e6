package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-service/config"
	"commerce-service/internal/api"
	"commerce-service/internal/broker"
	"commerce-service/internal/provider"
	"commerce-service/internal/provider/paymentapi"
	"commerce-service/internal/provider/printapi"
	"commerce-service/internal/redisclient"
	"commerce-service/internal/service"
	"commerce-service/internal/store"
	"commerce-service/internal/util"
	"commerce-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting commerce service")

	tp, err := util.InitTracer("commerce-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	payments := paymentapi.NewClient(cfg.Payment.BaseURL, cfg.Payment.APIKey, cfg.Payment.Timeout)

	var printer provider.PrintProvider
	if cfg.Print.Enabled {
		printer = printapi.NewClient(cfg.Print.BaseURL, cfg.Print.ClientKey, cfg.Print.ClientSecret, cfg.Print.Timeout)
		log.Println("Print provider configured")
	} else {
		log.Println("Print provider disabled; physical items will be recorded as pending")
	}

	walletService := service.NewWalletService(db, cfg.Business.StarterBonusCredits)
	earningsService := service.NewEarningsService(db, cfg.Business.FeePercent,
		time.Duration(cfg.Business.MaturationDays)*24*time.Hour)
	fulfillmentEngine := service.NewFulfillmentEngine(db, printer, earningsService,
		time.Duration(cfg.Business.DownloadExpiryDays)*24*time.Hour, cfg.Print.ShippingLevel)
	checkoutService := service.NewCheckoutService(db, payments, cfg.Business.FeePercent,
		cfg.Payment.SuccessURL, cfg.Payment.CancelURL)
	webhookProcessor := service.NewWebhookProcessor(db, redisClient, walletService, fulfillmentEngine, eventPublisher)
	payoutService := service.NewPayoutService(db, payments, redisClient, eventPublisher, cfg.Business.PayoutCurrency,
		service.OnboardingURLs{Refresh: cfg.Payment.OnboardingRefreshURL, Return: cfg.Payment.OnboardingReturnURL})
	orderService := service.NewOrderService(db)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notificationConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(notificationConsumer, provider.NewLogEmailSender(logger))
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	maturationWorker := worker.NewMaturationWorker(earningsService, cfg.Business.MaturationSweep)
	go func() {
		if err := maturationWorker.Start(workerCtx); err != nil {
			log.Printf("Maturation worker error: %v", err)
		}
	}()

	printSyncWorker := worker.NewPrintSyncWorker(db, fulfillmentEngine, cfg.Business.PrintSyncInterval)
	go func() {
		if err := printSyncWorker.Start(workerCtx); err != nil {
			log.Printf("Print sync worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(walletService, checkoutService, webhookProcessor, fulfillmentEngine, payoutService, orderService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	notificationWorker.Stop()

	log.Println("Server exited")
}
