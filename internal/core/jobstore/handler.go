package jobstore

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/standardforever/job-scrapper/internal/platform/redis"
)

const statsCacheKey = "jobs:stats"

type Handler struct {
	store *Store
	cache *redis.Service
}

func NewHandler(store *Store, cache *redis.Service) *Handler {
	return &Handler{store: store, cache: cache}
}

// HandleListJobs returns a page of stored postings, optionally filtered
// by location or company.
func (h *Handler) HandleListJobs(c *fiber.Ctx) error {
	q := ListQuery{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
		Location: c.Query("location"),
		Company:  c.Query("company"),
	}

	page, err := h.store.ListJobs(c.Context(), q)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"total_count": page.Total,
		"jobs":        page.Jobs,
		"page":        page.Page,
		"page_size":   page.PageSize,
		"total_pages": page.TotalPages,
	})
}

// HandleJobStats serves aggregate counts. The aggregation walks the
// whole collection, so results are cached for a minute.
func (h *Handler) HandleJobStats(c *fiber.Ctx) error {
	var cached Stats
	if h.cache != nil {
		if err := h.cache.CacheGet(c.Context(), statsCacheKey, &cached); err == nil {
			return c.JSON(cached)
		}
	}

	stats, err := h.store.GetStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if h.cache != nil {
		_ = h.cache.CacheSet(c.Context(), statsCacheKey, stats, 60)
	}
	return c.JSON(stats)
}

// HandleExportCSV streams every stored posting as a flattened CSV
// download.
func (h *Handler) HandleExportCSV(c *fiber.Ctx) error {
	jobs, err := h.store.AllJobs(c.Context(), ListQuery{
		Location: c.Query("location"),
		Company:  c.Query("company"),
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	if len(jobs) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "no jobs to export"})
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, jobs); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	filename := fmt.Sprintf("jobs_%s.csv", time.Now().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
