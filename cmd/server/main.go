package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/cache"
	"github.com/AlxM1/aelo/internal/config"
	"github.com/AlxM1/aelo/internal/consumer"
	h "github.com/AlxM1/aelo/internal/http"
	"github.com/AlxM1/aelo/internal/payment"
	"github.com/AlxM1/aelo/internal/publisher"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/AlxM1/aelo/internal/service"
	"github.com/AlxM1/aelo/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const queryCacheTTL = 60 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(logger.New(logger.DefaultConfig()), "invalid configuration", "error", err)
	}

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Component:   "aelo",
		Environment: cfg.Environment,
		Output:      os.Stdout,
	})
	slog.SetDefault(log)
	log.Info("aelo starting...")

	// Database setup
	creds := &repository.Credentials{
		Driver:            cfg.DBDriver,
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		Path:              cfg.DBPath,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		logger.Fatal(log, "failed to connect to database", "error", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		logger.Fatal(log, "failed to run migrations", "error", err)
	}
	log.Info("database migrations completed", "driver", cfg.DBDriver)

	// MongoDB holds cart sessions
	ctx := context.Background()
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		logger.Fatal(log, "failed to connect to MongoDB", "error", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())
	log.Info("connected to MongoDB", "uri", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	// the caches fall back to the stores, so a missing Redis is not fatal
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis ping failed, running without warm caches", "addr", cfg.RedisAddr, "error", err)
	} else {
		log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
	}
	cartCache := cache.NewRedisCache(redisClient)
	queryCache := cache.NewRedisQueryCache(redisClient, queryCacheTTL)

	// Services
	authenticator := access.NewAuthenticator(cfg.JWTSecret, cfg.SessionTTL, repo)
	checkoutClient := payment.NewClient(payment.Config{
		BaseURL: cfg.CheckoutAPIURL,
		APIKey:  cfg.CheckoutAPIKey,
	}, log.With("component", "checkout-client"))

	settingsService := service.NewSettingsService(repo, queryCache, log)
	cartService := service.NewCartService(repository.NewMongoCartRepository(mongoDB), cartCache, repo, log)
	checkoutService := service.NewCheckoutService(repo, checkoutClient, cartService, service.CheckoutConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		Currency:      cfg.CheckoutCurrency,
	}, log)
	orderService := service.NewOrderService(repo, repo, log)
	catalogService := service.NewCatalogService(repo, repo, repo, settingsService, queryCache, log)
	mediaService := service.NewMediaService(repo, cfg.UploadsDir, log)

	timeout := cfg.RequestTimeout
	handlers := h.Handlers{
		Storefront: h.NewStorefrontHandler(catalogService, timeout),
		Cart:       h.NewCartHandler(cartService, timeout),
		Checkout:   h.NewCheckoutHandler(checkoutService, cartService, timeout),
		Webhook:    h.NewWebhookHandler(orderService, cfg.CheckoutWebhookSecret, timeout, log),
		Auth:       h.NewAuthHandler(service.NewUserService(repo, authenticator, log), cfg.SecureCookies(), timeout),
		Orders:     h.NewOrdersHandler(orderService, timeout),
		Admin: h.NewAdminHandler(h.AdminServices{
			Products:  service.NewProductService(repo, queryCache, log),
			FAQs:      service.NewFAQService(repo, queryCache, log),
			Settings:  settingsService,
			Nav:       service.NewNavService(repo, queryCache, log),
			Media:     mediaService,
			Users:     service.NewUserService(repo, authenticator, log),
			Dashboard: service.NewDashboardService(repo),
		}, timeout),
	}

	router := h.NewRouter(handlers, h.NewGate(authenticator), h.RouterConfig{
		RequestTimeout: timeout,
		UploadsDir:     mediaService.Dir(),
		AdminUIDir:     cfg.AdminUIDir,
	})

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	if cfg.KafkaEnabled {
		poller := publisher.NewOutboxPoller(repo, log.With("component", "outbox"), cfg.KafkaBrokers...)
		defer poller.Close()
		paymentConsumer := consumer.NewConsumer(orderService, log.With("component", "payment-consumer"), cfg.KafkaBrokers...)
		defer paymentConsumer.Close()

		wg.Add(2)
		go func() {
			defer wg.Done()
			poller.Run(workerCtx)
		}()
		go func() {
			defer wg.Done()
			paymentConsumer.Run(workerCtx)
		}()
		log.Info("kafka workers started", "brokers", cfg.KafkaBrokers)
	}

	// gRPC health server
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCHealthPort))
	if err != nil {
		logger.Fatal(log, "failed to listen", "port", cfg.GRPCHealthPort, "error", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		log.Info("gRPC health server listening", "port", cfg.GRPCHealthPort)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal(log, "failed to serve gRPC", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "aelo"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(log, "HTTP server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}

	stopWorkers()
	wg.Wait()
	grpcServer.GracefulStop()

	log.Info("aelo stopped")
}
