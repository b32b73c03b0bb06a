package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jon-the-dev/album-relay/api"
	"github.com/jon-the-dev/album-relay/cache"
	"github.com/jon-the-dev/album-relay/config"
	"github.com/jon-the-dev/album-relay/email"
	"github.com/jon-the-dev/album-relay/middleware"
	"github.com/jon-the-dev/album-relay/models"
	"github.com/jon-the-dev/album-relay/providers"
	"github.com/jon-the-dev/album-relay/secrets"
	"github.com/jon-the-dev/album-relay/security"
	"github.com/jon-the-dev/album-relay/services"
	"github.com/jon-the-dev/album-relay/storage"
	"github.com/jon-the-dev/album-relay/stores"
)

func storageFromConfig(awsCfg aws.Config, bucket string) *storage.S3Store {
	return storage.NewS3Store(s3.NewFromConfig(awsCfg), bucket)
}

func mailerFromConfig(awsCfg aws.Config, sender string) *email.SESMailer {
	return email.NewSESMailer(sesv2.NewFromConfig(awsCfg), sender)
}

func secretsFromConfig(awsCfg aws.Config, prefix string) *secrets.Provider {
	return secrets.NewProvider(ssm.NewFromConfig(awsCfg), prefix, 5*time.Minute)
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func printStep(step, message string) {
	fmt.Printf("%s[%s]%s %s%s%s\n", colorBlue, step, colorReset, colorBold, message, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

func printWarning(message string) {
	fmt.Printf("%s⚠%s %s\n", colorYellow, colorReset, message)
}

func printError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

func main() {
	printStep("1/9", "Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("Configuration validation failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Configuration loaded")

	printStep("2/9", "Connecting to database...")
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		printError(fmt.Sprintf("Failed to connect to database: %v", err))
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		printError(fmt.Sprintf("Failed to get database instance: %v", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if cfg.Database.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	}

	if err := stores.AutoMigrate(db, &models.WebhookEvent{}, &models.Client{}, &models.AlbumDelivery{}); err != nil {
		printError(fmt.Sprintf("Database migration failed: %v", err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port))

	printStep("3/9", "Connecting to Redis...")
	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TTL:      cfg.Redis.TTL,
	})
	if err != nil {
		printWarning(fmt.Sprintf("Failed to connect to Redis: %v (continuing without cache)", err))
		redisCache = nil
	} else {
		defer redisCache.Close()
		printSuccess(fmt.Sprintf("Connected to Redis at %s:%d", cfg.Redis.Host, cfg.Redis.Port))
	}

	printStep("4/9", "Loading AWS clients...")
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.AWS.Region),
	)
	if err != nil {
		printError(fmt.Sprintf("Failed to load AWS configuration: %v", err))
		os.Exit(1)
	}

	objectStore := storageFromConfig(awsCfg, cfg.AWS.Bucket)
	mailer := mailerFromConfig(awsCfg, cfg.Email.Sender)
	secretProvider := secretsFromConfig(awsCfg, cfg.AWS.SSMPrefix)
	printSuccess(fmt.Sprintf("AWS clients ready in %s (bucket %s)", cfg.AWS.Region, cfg.AWS.Bucket))

	printStep("5/9", "Initializing webhook verifier...")
	verifier := providers.NewPayPalVerifier(secretProvider, cfg.PayPal.APIBase)
	printSuccess(fmt.Sprintf("PayPal verifier targeting %s", cfg.PayPal.APIBase))

	printStep("6/9", "Initializing stores...")
	webhookStore := stores.NewWebhookStore(db)
	clientStore := stores.NewClientStore(db)
	albumStore := stores.NewAlbumStore(db)
	printSuccess("Stores initialized")

	printStep("7/9", "Initializing services...")
	deliveryService := services.NewDeliveryService(objectStore, mailer, albumStore, cfg.Delivery.LinkTTL)
	webhookService := services.NewWebhookService(webhookStore, deliveryService, cfg.Delivery.EventRetention)
	clientService := services.NewClientService(clientStore)

	var orderCache services.OrderCache
	if redisCache != nil {
		orderCache = redisCache
	}
	orderService := services.NewOrderService(webhookStore, orderCache, cfg.Redis.TTL)

	sweeper := services.NewSweeper(cfg.Delivery.SweepInterval, webhookStore, albumStore)
	printSuccess("Services initialized")

	printStep("8/9", "Setting up HTTP server...")
	webhookHandler := api.NewWebhookHandler(verifier, webhookService)
	clientHandler := api.NewClientHandler(clientService)
	orderHandler := api.NewOrderHandler(orderService)
	albumHandler := api.NewAlbumHandler(deliveryService, albumStore)

	signatureAuth := middleware.NewSignatureMiddleware(secretProvider)
	rateLimiter := security.NewRateLimiter()
	defer rateLimiter.Close()

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.HeadersMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	if cfg.Security.RateLimitEnabled {
		router.Use(middleware.RateLimitMiddleware(rateLimiter, security.RateLimitConfig{
			RequestsPerSecond: cfg.Security.RateLimitRPS,
			Burst:             cfg.Security.RateLimitBurst,
		}))
	}

	router.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", api.MetricsHandler).Methods("GET")

	// The vendor endpoint authenticates with the vendor's own signature
	// scheme inside the handler, not the shared-key HMAC.
	router.HandleFunc("/webhooks/paypal", webhookHandler.HandlePayPalWebhook).Methods("POST")

	signedRouter := router.PathPrefix("/api/v1").Subrouter()
	signedRouter.Use(signatureAuth.Verify)

	signedRouter.HandleFunc("/clients", clientHandler.HandleCreateClient).Methods("POST")
	signedRouter.HandleFunc("/clients", clientHandler.HandleListClients).Methods("GET")
	signedRouter.HandleFunc("/clients/{id}", clientHandler.HandleGetClient).Methods("GET")

	signedRouter.HandleFunc("/orders", orderHandler.HandleListOrders).Methods("GET")
	signedRouter.HandleFunc("/orders/{id}", orderHandler.HandleGetOrder).Methods("GET")

	signedRouter.HandleFunc("/albums/zip", albumHandler.HandleZipAlbum).Methods("POST")
	signedRouter.HandleFunc("/albums", albumHandler.HandleListDeliveries).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	printSuccess("HTTP server configured")

	printStep("9/9", "Starting background sweeper...")
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweepCtx)
	printSuccess(fmt.Sprintf("Expiry sweeper running every %s", cfg.Delivery.SweepInterval))

	fmt.Println()
	fmt.Printf("%s%sAlbum Relay ready on port %s (%s)%s\n", colorGreen, colorBold, cfg.Server.Port, cfg.Environment, colorReset)
	fmt.Printf("  %s•%s Webhook:  POST /webhooks/paypal\n", colorCyan, colorReset)
	fmt.Printf("  %s•%s Clients:  /api/v1/clients\n", colorCyan, colorReset)
	fmt.Printf("  %s•%s Orders:   /api/v1/orders\n", colorCyan, colorReset)
	fmt.Printf("  %s•%s Albums:   /api/v1/albums/zip\n", colorCyan, colorReset)
	fmt.Println()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(fmt.Sprintf("Server failed to start: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println()
	printWarning("Shutting down...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Sprintf("Server forced to shutdown: %v", err))
		os.Exit(1)
	}

	printSuccess("Server stopped gracefully")
}
