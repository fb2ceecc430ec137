package traverse

import (
	"context"
	"time"

	"github.com/standardforever/job-scrapper/internal/core/ats"
	"github.com/standardforever/job-scrapper/internal/logger"
)

// Enricher visits each discovered job's own page and fills in the
// structured posting details plus ATS classification. A failure on one
// job is recorded in that job's details and never stops the batch.
type Enricher struct {
	driver    PageDriver
	extractor ContentExtractor
	analyzer  PageAnalyzer
	tracker   *URLTracker
	detector  *ats.Detector
	pageWait  time.Duration
	log       *logger.Logger
}

func NewEnricher(driver PageDriver, extractor ContentExtractor, analyzer PageAnalyzer, tracker *URLTracker, pageWait time.Duration) *Enricher {
	return &Enricher{
		driver:    driver,
		extractor: extractor,
		analyzer:  analyzer,
		tracker:   tracker,
		detector:  ats.NewDetector(),
		pageWait:  pageWait,
		log:       logger.New("Enricher"),
	}
}

// ScrapeJobDetails enriches jobs in place and returns the same slice in
// the same order. domain is the company site the batch belongs to;
// filterURL is recorded on each job as the seed it came from. Jobs with
// no URL are left untouched, as are already-visited ones when
// skipAlreadyScraped is set.
func (e *Enricher) ScrapeJobDetails(ctx context.Context, domain string, jobs []JobEntry, filterURL string, skipAlreadyScraped bool) []JobEntry {
	for i := range jobs {
		job := &jobs[i]
		if job.URL == "" {
			continue
		}
		if skipAlreadyScraped && e.tracker.IsVisited(job.URL) {
			e.log.LogDebugf("skipping already visited job url %s", job.URL)
			continue
		}
		if ctx.Err() != nil {
			return jobs
		}

		details, rawText := e.scrapeOne(ctx, domain, job)
		detection := e.detector.Detect(job.URL, domain)
		if len(details) == 0 {
			continue
		}
		details["main_domain"] = domain
		details["raw_text"] = rawText
		details["filter_domain"] = filterURL
		details["url"] = job.URL
		details["is_known_ats"] = detection.IsKnownATS
		details["is_ats"] = detection.IsATS
		details["is_external_application"] = detection.IsExternalApplication
		details["ats_provider"] = detection.Provider
		details["detection_reason"] = detection.Reason
		job.Details = details
	}
	return jobs
}

// scrapeOne loads a single posting and runs the structured extraction.
// Errors come back as an error-marker details map, never as a failure.
func (e *Enricher) scrapeOne(ctx context.Context, domain string, job *JobEntry) (map[string]interface{}, string) {
	if current, err := e.driver.CurrentURL(ctx); err == nil && current != "" {
		job.URL = ResolveFullPath(job.URL, ExtractDomain(current))
	}

	if err := e.driver.Navigate(ctx, job.URL); err != nil {
		e.log.LogError("failed to open job page "+job.URL, err)
		return map[string]interface{}{
			"error":   err.Error(),
			"message": "Error scraping job details",
			"job_url": job.URL,
		}, ""
	}
	if err := sleepCtx(ctx, e.pageWait); err != nil {
		return map[string]interface{}{
			"error":   err.Error(),
			"message": "Error scraping job details",
			"job_url": job.URL,
		}, ""
	}
	e.tracker.MarkVisited(job.URL)

	text, err := e.extractor.Extract(ctx, e.driver)
	if err != nil {
		e.log.LogError("failed to extract job page "+job.URL, err)
		return map[string]interface{}{
			"error":   err.Error(),
			"message": "Error scraping job details",
			"job_url": job.URL,
		}, ""
	}

	details, err := e.analyzer.AnalyzeDetail(ctx, domain, text)
	if err != nil {
		e.log.LogError("structured analysis failed for "+job.URL, err)
		return map[string]interface{}{
			"error":   err.Error(),
			"message": "AI api error",
		}, text
	}
	return details, text
}
