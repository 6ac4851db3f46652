package main

import (
	"context"
	"errors"
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

	"basegraph.app/insight/common/id"
	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/common/otel"
	"basegraph.app/insight/core/config"
	"basegraph.app/insight/internal/http/handler"
	"basegraph.app/insight/internal/http/middleware"
	httprouter "basegraph.app/insight/internal/http/router"
	"basegraph.app/insight/internal/service"
	"basegraph.app/insight/internal/telemetry"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	tel, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg, os.Stdout)

	if tel != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "insight server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName, "storage", cfg.Storage.Backend)
	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	services, err := service.NewServices(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build engines", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	// The status stream is optional for the API; without redis the SSE route reports 503.
	var redisClient *redis.Client
	if redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL); err != nil {
		slog.WarnContext(ctx, "invalid redis url, task status stream disabled", "error", err)
	} else {
		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.WarnContext(ctx, "redis unreachable, task status stream disabled", "error", err)
			_ = redisClient.Close()
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	runCtx, stopTelemetry := context.WithCancel(ctx)
	defer stopTelemetry()
	if cfg.Telemetry.Enabled() {
		reader := telemetry.NewKafkaReader(cfg.Telemetry.Brokers(), cfg.Telemetry.KafkaTopic, cfg.Telemetry.KafkaGroupID+"-server")
		ingestor := telemetry.NewKafkaIngestor(reader, services.Registry())
		defer ingestor.Close()
		go func() {
			if err := ingestor.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(runCtx, "telemetry ingestor stopped", "error", err)
			}
		}()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, redisClient)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	stopTelemetry()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if tel != nil {
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, services *service.Services, redisClient *redis.Client) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, httprouter.Handlers{
		Code:       handler.NewCodeHandler(services.Code()),
		Cognitive:  handler.NewCognitiveHandler(services.Cognitive()),
		Insights:   handler.NewInsightHandler(services.Insights()),
		Ingest:     handler.NewIngestHandler(services.Signals(), services.Registry()),
		Schema:     handler.NewSchemaHandler(),
		TaskStatus: handler.NewTaskStatusHandler(redisClient, cfg.Pipeline.StatusStream),
	}, httprouter.RouterConfig{
		APIKey: cfg.APIKey,
	})

	return router
}

const banner = `
 ___ _   _ ____ ___ ____ _   _ _____
|_ _| \ | / ___|_ _/ ___| | | |_   _|
 | ||  \| \___ \| | |  _| |_| | | |
 | || |\  |___) | | |_| |  _  | | |
|___|_| \_|____/___\____|_| |_| |_|
`
