package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/realestate-platform/property-service/internal/adapter/cache/redis"
	"github.com/realestate-platform/property-service/internal/adapter/email"
	"github.com/realestate-platform/property-service/internal/adapter/httpserver"
	mongoadapter "github.com/realestate-platform/property-service/internal/adapter/mongo"
	natsadapter "github.com/realestate-platform/property-service/internal/adapter/nats"
	minioadapter "github.com/realestate-platform/property-service/internal/adapter/storage/minio"
	"github.com/realestate-platform/property-service/internal/auth"
	"github.com/realestate-platform/property-service/internal/config"
	"github.com/realestate-platform/property-service/internal/port/cache"
	"github.com/realestate-platform/property-service/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	mongoClient, err := mongoadapter.NewMongoDBConnection(&cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}()

	propertyRepo := mongoadapter.NewPropertyMongoRepository(mongoClient, cfg.Mongo.Database)
	imageRepo := mongoadapter.NewPropertyImageMongoRepository(mongoClient, cfg.Mongo.Database)
	ownerRepo := mongoadapter.NewOwnerMongoRepository(mongoClient, cfg.Mongo.Database, logger)

	// Redis, NATS and MinIO are optional: the service degrades to direct reads,
	// no events and no archived image copies when they are unreachable.
	var cacheRepo cache.CacheRepository
	if redisClient, err := redis.NewRedisClient(&cfg.Redis, logger); err != nil {
		logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
	} else {
		cacheRepo = redis.NewRedisCacheRepository(redisClient, logger)
		defer redisClient.Close()
	}

	var publisher usecase.EventPublisher
	if natsPublisher, err := natsadapter.NewNATSPublisher(&cfg.NATS, logger); err != nil {
		logger.Warn("NATS unavailable, continuing without event publishing", zap.Error(err))
	} else {
		publisher = natsPublisher
		defer natsPublisher.Close()
	}

	var archive usecase.ImageArchive
	if imageArchive, err := minioadapter.NewImageArchive(&cfg.MinIO, logger); err != nil {
		logger.Warn("MinIO unavailable, continuing without image archive", zap.Error(err))
	} else {
		archive = imageArchive
	}

	tokenManager, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		logger.Fatal("Failed to initialize token manager", zap.Error(err))
	}

	mailer := email.NewSMTPSender(&cfg.SMTP, logger)

	propertyUC := usecase.NewPropertyUsecase(propertyRepo, ownerRepo, imageRepo, cacheRepo, publisher, archive, logger)
	authUC := usecase.NewAuthUsecase(ownerRepo, tokenManager, mailer, logger)

	propertyHandler := httpserver.NewPropertyHandler(propertyUC, cfg.HTTP.MaxUploadSize, logger)
	authHandler := httpserver.NewAuthHandler(authUC, logger)
	router := httpserver.NewRouter(propertyHandler, authHandler, tokenManager, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
