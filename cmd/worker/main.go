package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/insight/common/id"
	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/common/otel"
	"basegraph.app/insight/core/config"
	"basegraph.app/insight/internal/queue"
	"basegraph.app/insight/internal/service"
	"basegraph.app/insight/internal/telemetry"
	"basegraph.app/insight/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	tel, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)
	logger.Setup(cfg, os.Stdout)

	slog.InfoContext(ctx, "insight worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer,
		"workspaces", cfg.Engine.Workspaces)

	// Node 2 keeps worker-generated insight ids distinct from the server's
	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	services, err := service.NewServices(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build engines", "error", err)
		os.Exit(1)
	}
	defer services.Close()

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    10,
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	dispatcher := worker.NewDispatcher(services.Code(), services.Cognitive(), services.Insights(), worker.DispatcherConfig{
		InsightRetention: cfg.Engine.InsightRetention,
	})

	w := worker.New(consumer, dispatcher, worker.Config{
		MaxAttempts: 3,
		Status:      queue.NewRedisStatusPublisher(redisClient, cfg.Pipeline.StatusStream),
	})

	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:        cfg.Pipeline.RedisStream,
		Group:         cfg.Pipeline.RedisGroup,
		Consumer:      cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:       5 * time.Minute,
		Interval:      time.Minute,
		BatchSize:     10,
		MaxDeliveries: 5,
	}, consumer, w.ProcessMessage)

	producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	scheduler := worker.NewScheduler(producer, worker.SchedulerConfig{
		Workspaces: cfg.Engine.Workspaces,
		Interval:   cfg.Engine.CollectInterval,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(runCtx)
	}()
	go reclaimer.Run(runCtx)
	go scheduler.Run(runCtx)

	if cfg.Telemetry.Enabled() {
		reader := telemetry.NewKafkaReader(cfg.Telemetry.Brokers(), cfg.Telemetry.KafkaTopic, cfg.Telemetry.KafkaGroupID+"-worker")
		ingestor := telemetry.NewKafkaIngestor(reader, services.Registry())
		defer ingestor.Close()
		go func() {
			if err := ingestor.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(runCtx, "telemetry ingestor stopped", "error", err)
			}
		}()
	}

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Scheduler and reclaimer stop quickly; the worker may be mid-task
	scheduler.Stop()
	reclaimer.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}
	cancelRun()

	if tel != nil {
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ___ _   _ ____ ___ ____ _   _ _____  __        _____  ____  _  _______ ____
|_ _| \ | / ___|_ _/ ___| | | |_   _| \ \      / / _ \|  _ \| |/ / ____|  _ \
 | ||  \| \___ \| | |  _| |_| | | |    \ \ /\ / / | | | |_) | ' /|  _| | |_) |
 | || |\  |___) | | |_| |  _  | | |     \ V  V /| |_| |  _ <| . \| |___|  _ <
|___|_| \_|____/___\____|_| |_| |_|      \_/\_/  \___/|_| \_\_|\_\_____|_| \_\
`
