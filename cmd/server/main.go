package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"readiq.app/api/common/id"
	"readiq.app/api/common/logger"
	"readiq.app/api/common/otel"
	"readiq.app/api/core/config"
	"readiq.app/api/core/db"
	"readiq.app/api/internal/billing"
	"readiq.app/api/internal/http/middleware"
	httprouter "readiq.app/api/internal/http/router"
	"readiq.app/api/internal/identity"
	"readiq.app/api/internal/mailer"
	"readiq.app/api/internal/queue"
	"readiq.app/api/internal/service"
	"readiq.app/api/internal/store"
)

const paymentSweepInterval = time.Minute

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses the OTel log provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "readiq api starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	var (
		producer     queue.Producer
		paymentStore store.PaymentSessionStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.Stream)

		producer = queue.NewRedisProducer(redisClient, cfg.Redis.Stream, slog.Default())
		defer producer.Close()
		paymentStore = store.NewRedisPaymentSessionStore(redisClient)
	} else {
		slog.WarnContext(ctx, "redis not configured: profile link retries disabled, payment sessions kept in memory")
		memStore := store.NewMemoryPaymentSessionStore()
		go memStore.Run(runCtx, paymentSweepInterval)
		paymentStore = memStore
	}

	if !cfg.Billing.Enabled() {
		slog.WarnContext(ctx, "billing not configured: every seat check will fail closed")
	}

	services := service.NewServices(service.Deps{
		Stores:       store.NewStores(database.Queries()),
		TxRunner:     service.NewTxRunner(database),
		Provider:     identity.NewWorkOSProvider(cfg.WorkOS),
		Billing:      billing.NewClient(cfg.Billing),
		Sender:       mailer.NewSender(cfg.SMTP),
		Producer:     producer,
		PaymentStore: paymentStore,
		Config:       cfg,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := setupRouter(cfg, services)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up routes", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func setupRouter(cfg config.Config, services *service.Services) (*gin.Engine, error) {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	err := httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		AppURL:       cfg.AppURL,
		IsProduction: cfg.IsProduction(),
		RateLimit:    cfg.RateLimit,
	})
	if err != nil {
		return nil, err
	}
	return router, nil
}

const banner = `
 ___ ___   _   ___ ___ ___     _   ___ ___
| _ \ __| /_\ |   \_ _/ _ \   /_\ | _ \_ _|
|   / _| / _ \| |) | | (_) | / _ \|  _/| |
|_|_\___/_/ \_\___/___\__\_\/_/ \_\_| |___|
`
