package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcapi "dormhub-backend/internal/api/grpc"
	"dormhub-backend/internal/api/grpc/interceptor"
	httpapi "dormhub-backend/internal/api/http"
	"dormhub-backend/internal/config"
	"dormhub-backend/internal/idempotency"
	"dormhub-backend/internal/logger"
	"dormhub-backend/internal/repository/postgres"
	"dormhub-backend/internal/security"
	"dormhub-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting DormHub rentals backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	limits := cfg.QuotaLimits()

	// Initialize Services
	reservationSvc := service.NewReservationService(store.ReservationRepository, store.PropertyCatalog, limits)
	bookingSvc := service.NewBookingService(store.BookingRepository, store.EscrowRepository, store.ReservationRepository, store.PropertyCatalog)
	escrowSvc := service.NewEscrowService(store.EscrowRepository)
	quotaSvc := service.NewQuotaService(store.ReservationRepository, store.FavoriteRepository, store.PropertyCatalog, limits)

	// Idempotency keys are best effort; without Redis, POSTs run unprotected.
	var idemStore idempotency.Store
	if redisClient := connectRedis(ctx, cfg.Redis.URL); redisClient != nil {
		defer redisClient.Close()
		idemStore = idempotency.NewRedisStore(redisClient, "dormhub:idempotency")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Reservations:   reservationSvc,
		Bookings:       bookingSvc,
		Escrows:        escrowSvc,
		Quota:          quotaSvc,
		TokenManager:   security.NewTokenManager(cfg.JWT.Secret),
		Idempotency:    idemStore,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Health:         store.Ping,
	})
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health service, optional
	var grpcServer *grpc.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(interceptor.NewLoggingInterceptor().Unary()))
		monitor := grpcapi.NewHealthMonitor(store.Ping, 10*time.Second)
		healthpb.RegisterHealthServer(grpcServer, monitor.Server())
		reflection.Register(grpcServer)
		go monitor.Run(ctx)

		go func() {
			logger.Info("gRPC health server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("Server stopped. Goodbye!")
}

func connectRedis(ctx context.Context, url string) *redis.Client {
	if strings.TrimSpace(url) == "" {
		logger.Warn("Redis URL missing; idempotency keys disabled")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Warn("Redis URL parse failed; idempotency keys disabled", "error", err)
		return nil
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis ping failed; idempotency keys disabled", "error", err)
		client.Close()
		return nil
	}
	logger.Info("Redis connected")
	return client
}
