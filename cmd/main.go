package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Adapters
	natsAdapter "github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/messaging/nats"
	cacheAdapter "github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/repository/cache"
	mongoRepo "github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/rest"
	s3Adapter "github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/adapter/ws"

	// Config
	"github.com/Abdurahmanit/GroupProject/board-service/internal/config"
	// Domain & Usecase
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/domain"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/board/usecase"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/mailer"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/middleware"
	// Platform
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/tracer"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	// Load .env file (optional, for local development)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	// 1. Initialize Logger
	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...")

	// 2. Load Configuration
	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}
	serviceName := cfg.ServiceName
	appLogger.Info("Configuration loaded successfully",
		zap.String("service_name", serviceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_set", cfg.MongoURI != ""),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	// 3. Initialize OpenTelemetry Tracer
	var tp *sdktrace.TracerProvider
	if cfg.OTELEndpoint != "" {
		tp = tracer.InitTracer(serviceName, cfg.OTELEndpoint, appLogger)
		defer func() {
			appLogger.Info("Shutting down tracer provider...")
			ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			if err := tp.Shutdown(ctxShutdown); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
		appLogger.Info("OpenTelemetry Tracer initialized.")
	} else {
		appLogger.Info("OpenTelemetry Tracer not initialized (OTEL_EXPORTER_OTLP_ENDPOINT not set).")
	}

	// 4. Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		appLogger.Info("Disconnecting from MongoDB...")
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	ctxPingMongo, cancelPingMongo := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPingMongo()
	if err = mongoClient.Ping(ctxPingMongo, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	// 5. Connect to Redis
	redisClient, err := cacheAdapter.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	appLogger.Info("Successfully connected to Redis.")

	// 6. Initialize NATS Publisher
	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()
	appLogger.Info("NATS Publisher initialized.")

	// 7. Initialize MinIO photo storage
	photoStorage, err := s3Adapter.NewS3Storage(
		cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize photo storage", zap.Error(err))
	}
	appLogger.Info("Photo storage initialized.", zap.String("bucket", cfg.MinIOBucket))

	// 8. Initialize Metrics
	metricsManager := metrics.NewMetricsManager(serviceName)

	// 9. Initialize Repositories
	listingRepo, err := mongoRepo.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ListingRepository", zap.Error(err))
	}
	permanentRepo := mongoRepo.NewPermanentRepository(db, appLogger)
	promoRepo := mongoRepo.NewPromoRepository(db, appLogger)
	visibleCache := cacheAdapter.NewRedisVisibleCache(redisClient, appLogger)
	appLogger.Info("Repositories initialized.")

	// 10. Moderator notifications
	var notifier domain.Notifier = mailer.NopNotifier{}
	mailCfg := mailer.Config{
		Host:           cfg.SMTPHost,
		Port:           cfg.SMTPPort,
		Username:       cfg.SMTPUsername,
		Password:       cfg.SMTPPassword,
		SenderEmail:    cfg.SMTPSenderEmail,
		ModeratorEmail: cfg.ModeratorEmail,
	}
	if mailCfg.Enabled() {
		notifier = mailer.NewMailer(mailCfg, appLogger)
		appLogger.Info("Moderator mail notifications enabled.", zap.String("moderator_email", cfg.ModeratorEmail))
	} else {
		appLogger.Info("Moderator mail notifications disabled (SMTP not configured).")
	}

	// 11. Operator authorization
	authorizer := middleware.NewOperatorAuthorizer(
		cfg.AdminSecret, cfg.JWTSecret,
		time.Duration(cfg.OperatorTokenTTLMin)*time.Minute, appLogger)

	// 12. Hub, Usecases and Scheduler. The hub is the broadcaster the
	// usecases publish through, so it is built first and bound afterwards.
	hub := ws.NewHub(authorizer, int64(cfg.MaxPhotoBytes), metricsManager, appLogger)

	visibleUC := usecase.NewVisibleUsecase(listingRepo, permanentRepo, visibleCache, cfg.VisibleLimit, appLogger)
	submissionUC := usecase.NewSubmissionUsecase(
		listingRepo, permanentRepo, promoRepo, photoStorage, visibleCache,
		hub, natsPublisher, notifier, metricsManager, cfg.MaxPhotoBytes, appLogger)
	moderationUC := usecase.NewModerationUsecase(
		listingRepo, permanentRepo, promoRepo, visibleCache,
		hub, natsPublisher, metricsManager, appLogger)
	scheduler := usecase.NewExpiryScheduler(
		listingRepo, permanentRepo, visibleCache, hub, natsPublisher, metricsManager,
		time.Duration(cfg.ExpiryIntervalHours)*time.Hour,
		time.Duration(cfg.ExpiryPollSeconds)*time.Second,
		cfg.VisibleLimit, appLogger)

	hub.BindUsecases(visibleUC, submissionUC, moderationUC)
	hub.BindClock(scheduler)
	appLogger.Info("Usecases initialized.")

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	go scheduler.Run(schedulerCtx)
	appLogger.Info("Expiry scheduler started.", zap.Time("next_reset", scheduler.NextReset()))

	// 13. Start HTTP Server
	router := rest.NewRouter(hub, moderationUC, authorizer, cfg.StaticDir, appLogger)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
	}()

	// 14. Start gRPC Health Server
	lis, err := net.Listen("tcp", ":"+cfg.HealthGRPCPort)
	if err != nil {
		appLogger.Fatal("Failed to listen for gRPC health", zap.String("port", cfg.HealthGRPCPort), zap.Error(err))
	}
	grpcSrv := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcSrv, healthServer)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)
	go func() {
		appLogger.Info("Starting gRPC health server", zap.String("port", cfg.HealthGRPCPort))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			appLogger.Fatal("gRPC health server Serve error", zap.Error(err))
		}
	}()

	// 15. Start Prometheus Metrics Server
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			appLogger.Info("Starting Prometheus metrics server", zap.String("port", cfg.PrometheusMetricsPort))
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", zap.Error(err))
			}
		}()
	} else {
		appLogger.Info("Prometheus metrics server not started (PROMETHEUS_METRICS_PORT not set).")
	}

	// 16. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	stopScheduler()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	hub.Shutdown(shutdownCtx)
	appLogger.Info("Websocket sessions closed.")

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("HTTP server stopped.")

	grpcSrv.GracefulStop()
	appLogger.Info("gRPC health server stopped.")

	appLogger.Info("Application shutting down...")
}
