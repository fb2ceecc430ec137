package batch

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/standardforever/job-scrapper/internal/core/scrapejob"
)

type Handler struct {
	service  *Service
	pipeline *scrapejob.Service
}

func NewHandler(service *Service, pipeline *scrapejob.Service) *Handler {
	return &Handler{service: service, pipeline: pipeline}
}

type BatchRequest struct {
	URLs       []string `json:"urls"`
	MaxWorkers int      `json:"max_workers"`
	Priority   int      `json:"priority"`
}

type SingleRequest struct {
	URL string `json:"url"`
}

// HandleStartBatch accepts a list of domains and kicks off a background
// batch sized to the host's current headroom.
func (h *Handler) HandleStartBatch(c *fiber.Ctx) error {
	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid body"})
	}
	if len(req.URLs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "urls is required"})
	}

	batch, workers, err := h.service.StartBatch(c.Context(), req.URLs, req.MaxWorkers, req.Priority)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success":       false,
			"message":       err.Error(),
			"resource_info": h.service.Resources().Status(),
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Batch started with %d workers", workers),
		"batch_id":      batch.BatchID,
		"batch_info":    batch,
		"resource_info": h.service.Resources().Status(),
	})
}

// HandleScrapeSingle runs one domain synchronously. Meant for testing
// and quick one-off scrapes; rejected while a batch holds the workers.
func (h *Handler) HandleScrapeSingle(c *fiber.Ctx) error {
	var req SingleRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "url is required"})
	}

	res := h.service.Resources()
	if ok, _ := res.CanAcceptBatch(); !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"error":   "Server is busy processing a batch. Try again later or check /v1/scrape/progress",
		})
	}

	workers := res.Allocate(1)
	defer res.Release(workers)

	start := time.Now()
	result, err := h.pipeline.ScrapeDomain(c.Context(), req.URL)
	duration := time.Since(start).Seconds()

	if err != nil {
		return c.JSON(fiber.Map{
			"success":          false,
			"message":          "Scraping failed",
			"url":              req.URL,
			"error":            err.Error(),
			"duration_seconds": duration,
		})
	}

	return c.JSON(fiber.Map{
		"success":          true,
		"message":          "Scraping completed successfully",
		"url":              req.URL,
		"jobs_found":       result.JobsFound,
		"jobs":             result.Jobs,
		"duration_seconds": duration,
	})
}

// HandleProgress reports the active batch with per-task detail.
func (h *Handler) HandleProgress(c *fiber.Ctx) error {
	progress, err := h.service.Manager().GetProgress(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"is_running":    progress.IsRunning,
		"batch_info":    progress.BatchInfo,
		"tasks":         progress.Tasks,
		"resource_info": h.service.Resources().Status(),
	})
}

// HandleStatus is the lightweight polling endpoint.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	m := h.service.Manager()
	batchID := m.ActiveBatchID()
	if batchID == "" {
		return c.JSON(fiber.Map{"is_running": false, "batch_id": nil, "message": "No active batch"})
	}
	batch, err := m.GetBatch(c.Context(), batchID)
	if err != nil || batch == nil {
		return c.JSON(fiber.Map{"is_running": false, "batch_id": nil, "message": "No active batch"})
	}

	progressPercent := 0.0
	if batch.TotalURLs > 0 {
		progressPercent = float64(batch.CompletedURLs+batch.FailedURLs) / float64(batch.TotalURLs) * 100
	}

	return c.JSON(fiber.Map{
		"is_running":       batch.Status == BatchRunning,
		"batch_id":         batch.BatchID,
		"total_urls":       batch.TotalURLs,
		"completed_urls":   batch.CompletedURLs,
		"failed_urls":      batch.FailedURLs,
		"pending_urls":     batch.PendingURLs,
		"running_urls":     batch.RunningURLs,
		"progress_percent": progressPercent,
		"workers_active":   batch.WorkersActive,
		"total_jobs_found": batch.TotalJobsFound,
	})
}

// HandleStop cancels the active batch's pending tasks; running tasks
// finish their current URL.
func (h *Handler) HandleStop(c *fiber.Ctx) error {
	stopped, err := h.service.Stop(c.Context())
	if err != nil {
		return c.JSON(fiber.Map{"success": false, "message": err.Error(), "stopped_tasks": 0})
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Batch stopped. %d pending tasks cancelled.", stopped),
		"stopped_tasks": stopped,
	})
}

func (h *Handler) HandleResources(c *fiber.Ctx) error {
	return c.JSON(h.service.Resources().Status())
}

func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 10))
	batches, err := h.service.Manager().RecentBatches(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"batches": batches})
}

func (h *Handler) HandleBatchDetails(c *fiber.Ctx) error {
	batchID := c.Params("batchId")
	m := h.service.Manager()

	batch, err := m.GetBatch(c.Context(), batchID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if batch == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Batch not found"})
	}

	tasks, err := m.GetBatchTasks(c.Context(), batchID, "", 100)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"batch": batch, "tasks": tasks})
}
