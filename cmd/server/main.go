package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/api"
	job "github.com/maheshrc27/postflow/internal/jobs"
	"github.com/maheshrc27/postflow/internal/lock"
	"github.com/maheshrc27/postflow/internal/logger"
	"github.com/maheshrc27/postflow/internal/media"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/notification"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/internal/queue"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/pkg/vault"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
)

const automationLockKey = "postflow:automation:tick"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	lg := logger.SetupDefault(os.Stdout)

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	shutdownTracing := initTracing(ctx, cfg.OTLPEndpoint)

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	v, err := vault.New([]byte(cfg.EncryptionKey))
	if err != nil {
		log.Fatalf("Failed to set up credential vault: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg, lg)

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()
	inspector := asynq.NewInspector(redisConn)
	defer inspector.Close()
	q := queue.NewQueue(client, inspector)

	// repositories
	postRepo := repository.NewPostRepository(db)
	platformPostRepo := repository.NewPlatformPostRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	platformMetricsRepo := repository.NewPlatformMetricsRepository(db)
	jobMetricsRepo := repository.NewJobMetricsRepository(db)
	actionRepo := repository.NewAutomatedActionRepository(db)
	actionLogRepo := repository.NewActionLogRepository(db)
	notificationSettingsRepo := repository.NewNotificationSettingsRepository(db)

	fetcher := media.NewFetcher(cfg.MediaDownloadTimeout, cfg.MediaDownloadLimit)
	factory := platform.NewFactory(
		platform.WithTimeout(cfg.HTTPTimeout),
		platform.WithRecorder(recorder),
		platform.WithRateLimit(cfg.PlatformRatePerSec),
		platform.WithFetcher(fetcher),
	)

	var store media.Store
	if cfg.R2.BucketName != "" {
		r2, err := media.NewR2Store(ctx, cfg.R2)
		if err != nil {
			log.Fatalf("Failed to set up media store: %v", err)
		}
		store = r2
	}
	pipeline := media.NewPipeline(media.NewProcessor(), fetcher, store)

	var events notification.EventWriter
	if len(cfg.Kafka.Brokers) > 0 {
		kw := notification.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kw.Close()
		events = kw
	}
	notifier := notification.NewService(notificationSettingsRepo, notification.NewWebhookClient(10*time.Second), events, recorder)

	hub := service.NewHubManager(postRepo, platformPostRepo, credentialRepo, q, factory, v)
	credentialService := service.NewCredentialService(credentialRepo, factory, v)

	var locker service.TickLocker
	if cfg.AutomationLock {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb)
	}
	automation := service.NewAutomationService(actionRepo, actionLogRepo, hub, recorder, cfg.AutomationInterval, locker, automationLockKey)
	if err := automation.Start(); err != nil {
		log.Fatalf("Failed to start automation: %v", err)
	}

	// cron jobs
	credentialCheckJob := job.NewCredentialCheckJob(credentialRepo, factory, v, recorder, cfg.CredentialSweep)
	c := cron.New()
	if err := c.AddFunc("@every "+cfg.CredentialSweep.String(), credentialCheckJob.Run); err != nil {
		log.Fatalf("Failed to schedule credential check: %v", err)
	}
	c.Start()

	// workers
	postWorker := queue.NewPostWorker(postRepo, platformPostRepo, jobMetricsRepo, factory, v, pipeline, hub, notifier, recorder)
	metricsWorker := queue.NewMetricsWorker(credentialRepo, platformMetricsRepo, factory, v, recorder)

	publishServer := queue.NewServer(redisConn, queue.QueuePublish, cfg.PublishConcurrency)
	metricsServer := queue.NewServer(redisConn, queue.QueueMetrics, cfg.MetricsConcurrency)

	go func() {
		slog.Info("starting publish workers", "concurrency", cfg.PublishConcurrency)
		if err := publishServer.Run(queue.NewPublishMux(postWorker)); err != nil {
			log.Fatalf("Could not start publish workers: %v", err)
		}
	}()
	go func() {
		slog.Info("starting metrics workers", "concurrency", cfg.MetricsConcurrency)
		if err := metricsServer.Run(queue.NewMetricsMux(metricsWorker)); err != nil {
			log.Fatalf("Could not start metrics workers: %v", err)
		}
	}()

	app := api.NewRouter(*cfg, api.Deps{
		Hub:         hub,
		Automation:  automation,
		Credentials: credentialService,
		Actions:     actionRepo,
		DB:          db,
		Gatherer:    reg,
	})

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	slog.Info("server is running", "port", cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	if err := app.Shutdown(); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	automation.Stop()
	c.Stop()
	publishServer.Shutdown()
	metricsServer.Shutdown()

	tctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdownTracing(tctx); err != nil {
		slog.Error("failed to flush traces", "error", err)
	}
	slog.Info("server shutdown complete")
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}
