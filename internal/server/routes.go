package server

import (
	"github.com/standardforever/job-scrapper/internal/core/batch"
	"github.com/standardforever/job-scrapper/internal/core/jobstore"
	"github.com/standardforever/job-scrapper/internal/core/scrapejob"
	"github.com/standardforever/job-scrapper/internal/health"
	"github.com/standardforever/job-scrapper/internal/platform/mongo"
	"github.com/standardforever/job-scrapper/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Batch    *batch.Service
	Pipeline *scrapejob.Service
	Store    *jobstore.Store
	Redis    *redis.Service
	Mongo    *mongo.Service
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	// Health endpoints
	healthHandler := health.NewHealthHandler(d.Redis, d.Mongo)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")
	scrape := api.Group("/scrape")

	batchHandler := batch.NewHandler(d.Batch, d.Pipeline)
	scrape.Post("/batch", batchHandler.HandleStartBatch)
	scrape.Post("/single", batchHandler.HandleScrapeSingle)
	scrape.Get("/progress", batchHandler.HandleProgress)
	scrape.Get("/status", batchHandler.HandleStatus)
	scrape.Post("/stop", batchHandler.HandleStop)
	scrape.Get("/resources", batchHandler.HandleResources)
	scrape.Get("/history", batchHandler.HandleHistory)
	scrape.Get("/batch/:batchId", batchHandler.HandleBatchDetails)

	jobsHandler := jobstore.NewHandler(d.Store, d.Redis)
	scrape.Get("/jobs", jobsHandler.HandleListJobs)
	scrape.Get("/jobs/stats", jobsHandler.HandleJobStats)
	scrape.Get("/jobs/export", jobsHandler.HandleExportCSV)

	return healthHandler
}
