package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/standardforever/job-scrapper/internal/config"
	"github.com/standardforever/job-scrapper/internal/core/batch"
	"github.com/standardforever/job-scrapper/internal/core/jobstore"
	"github.com/standardforever/job-scrapper/internal/core/resources"
	"github.com/standardforever/job-scrapper/internal/core/scrapejob"
	"github.com/standardforever/job-scrapper/internal/logger"
	"github.com/standardforever/job-scrapper/internal/platform/eino"
	"github.com/standardforever/job-scrapper/internal/platform/mongo"
	rds "github.com/standardforever/job-scrapper/internal/platform/redis"
	tasks "github.com/standardforever/job-scrapper/internal/platform/tasks"
	"github.com/standardforever/job-scrapper/internal/server"
	"github.com/standardforever/job-scrapper/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Printf("[job-scrapper] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	// Initialize logger
	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// MongoDB client
	mongoSvc, err := mongo.New(mongo.Options{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer mongoSvc.Close(context.Background())

	// Asynq client and server
	taskClient := tasks.New(redisSvc)
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
	})

	// Eino (LLM) service initialized from environment variables
	einoSvc, err := eino.NewService(eino.Config{
		Provider:      cfg.LLMProvider,
		APIKey:        cfg.GeminiAPIKey,
		Model:         cfg.DefaultLLMModel,
		FallbackModel: cfg.FallbackLLMModel,
	})
	if err != nil {
		log.Fatalf("failed to initialize Eino service: %v", err)
	}

	// Core services
	store := jobstore.NewStore(mongoSvc)
	batchManager := batch.NewManager(mongoSvc)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := store.EnsureIndexes(ctx); err != nil {
			logr.LogWarnf("Job store index creation failed: %v", err)
		}
		if err := batchManager.EnsureIndexes(ctx); err != nil {
			logr.LogWarnf("Batch index creation failed: %v", err)
		}
		cancel()
	}

	resourceMgr := resources.NewManager()
	pipelineCfg := scrapejob.DefaultConfig()
	pipelineCfg.Headless = cfg.BrowserHeadless
	pipeline := scrapejob.New(einoSvc, store, pipelineCfg)
	batchSvc := batch.NewService(batchManager, resourceMgr, store, taskClient, pipeline.ScrapeFunc(), cfg.TaskMaxRetries)

	// Worker mux
	mux := worker.NewMux()
	mux.HandleFunc(batch.TaskTypeBatch, batchSvc.HandleBatchTask)

	// Start worker
	_, workerCancel := context.WithCancel(context.Background())
	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// Periodic cleanup of batches that never finished
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := batchManager.CleanupStaleBatches(ctx, 24*time.Hour); err != nil {
				logr.LogWarnf("Stale batch cleanup failed: %v", err)
			}
			cancel()
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "Job Scrapper",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})

	// Register routes with health handler
	deps := server.Dependencies{
		Batch:    batchSvc,
		Pipeline: pipeline,
		Store:    store,
		Redis:    redisSvc,
		Mongo:    mongoSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after all services are initialized
	go func() {
		time.Sleep(5 * time.Second) // Allow services to fully initialize
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		workerCancel()
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
