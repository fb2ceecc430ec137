package traverse

import (
	"context"
	"fmt"
	"time"

	"github.com/standardforever/job-scrapper/internal/logger"
)

func navigateInstruction(linkText string) string {
	return fmt.Sprintf("Find the clickable element whose visible text most closely matches '%s' "+
		"and is used to navigate to the job listings page.", linkText)
}

// EngineConfig bounds a traversal run.
type EngineConfig struct {
	// MaxNavigation caps how many navigation hops the engine follows
	// away from the seed before giving up on finding listings.
	MaxNavigation int
	// PageLoadWait is the settle time after each navigation.
	PageLoadWait time.Duration
	Pagination   PaginationConfig
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxNavigation: 2,
		PageLoadWait:  5 * time.Second,
		Pagination:    DefaultPaginationConfig(),
	}
}

// Engine drives one browser session from a seed URL to a set of job
// entries: classify the page, follow at most MaxNavigation hops to the
// real listings, then harvest across pagination. All visited-set state
// lives in the shared tracker so overlapping seeds converge.
type Engine struct {
	driver    PageDriver
	extractor ContentExtractor
	analyzer  PageAnalyzer
	tracker   *URLTracker
	pager     *PaginationDriver
	cfg       EngineConfig
	log       *logger.Logger
}

func NewEngine(driver PageDriver, extractor ContentExtractor, analyzer PageAnalyzer, tracker *URLTracker, cfg EngineConfig) *Engine {
	if cfg.MaxNavigation <= 0 {
		cfg.MaxNavigation = DefaultEngineConfig().MaxNavigation
	}
	return &Engine{
		driver:    driver,
		extractor: extractor,
		analyzer:  analyzer,
		tracker:   tracker,
		pager:     NewPaginationDriver(driver, extractor, cfg.Pagination),
		cfg:       cfg,
		log:       logger.New("TraversalEngine"),
	}
}

// run carries the per-run state so ScrapeJobs itself stays a loop over
// one page at a time.
type run struct {
	jobs    []JobEntry
	visited []string
}

func (e *Engine) navigate(ctx context.Context, r *run, url string) error {
	if err := e.driver.Navigate(ctx, url); err != nil {
		return err
	}
	if err := sleepCtx(ctx, e.cfg.PageLoadWait); err != nil {
		return err
	}
	e.tracker.MarkVisited(url)
	r.visited = append(r.visited, url)
	return nil
}

// collect records listed jobs. fallbackURL fills in a missing job_url
// and is the current page only on a single-posting page; on listing
// pages a title-only entry keeps an empty URL and is never marked
// scraped, so the listings page itself cannot end up in the scraped set.
func (r *run) collect(tracker *URLTracker, fallbackURL string, listed []ListedJob) {
	for _, lj := range listed {
		jobURL := lj.JobURL
		if jobURL == "" {
			jobURL = fallbackURL
		}
		r.jobs = append(r.jobs, JobEntry{Title: lj.Title, URL: jobURL, Path: lj.Path})
		if jobURL != "" {
			tracker.MarkJobScraped(jobURL)
		}
	}
}

func (r *run) result() *ScrapeResult {
	detailURLs := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		if j.URL != "" {
			detailURLs = append(detailURLs, j.URL)
		}
	}
	return &ScrapeResult{
		Jobs:          r.jobs,
		VisitedURLs:   r.visited,
		JobDetailURLs: detailURLs,
		Success:       true,
	}
}

func (r *run) failure(message string, err error) *ScrapeResult {
	res := r.result()
	res.Success = false
	res.Message = message
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// ScrapeJobs traverses from seedURL and returns every job entry it can
// find. The result always carries the pages visited and jobs collected
// so far, even when the run ends in failure or cancellation.
func (e *Engine) ScrapeJobs(ctx context.Context, seedURL string) *ScrapeResult {
	r := &run{}

	if e.tracker.ShouldSkip(seedURL) {
		e.log.LogInfof("skipping already processed url %s", seedURL)
		res := r.result()
		res.Message = "URL already processed"
		return res
	}

	if err := e.navigate(ctx, r, seedURL); err != nil {
		return r.failure("Navigation failed", err)
	}

	currentURL := seedURL
	navCount := 0
	for {
		if err := ctx.Err(); err != nil {
			return r.failure("Traversal cancelled", err)
		}

		text, err := e.extractor.Extract(ctx, e.driver)
		if err != nil {
			return r.failure("Content extraction failed", err)
		}

		analysis, err := e.analyzer.AnalyzeListing(ctx, currentURL, text)
		if err != nil {
			return r.failure("Ai analysis failed", err)
		}
		e.log.LogDebugf("page %s classified as %s (next action %s)", currentURL, analysis.PageCategory, analysis.NextAction)

		switch analysis.PageCategory {
		case CategoryNotJobRelated:
			e.log.LogInfof("page %s is not job related, stopping", currentURL)
			return r.result()

		case CategorySingleJob:
			r.collect(e.tracker, currentURL, analysis.JobsListedOnPage)
			return r.result()
		}

		if analysis.NextAction == ActionNavigate {
			if navCount >= e.cfg.MaxNavigation {
				e.log.LogWarnf("navigation limit reached at %s", currentURL)
				return r.result()
			}
			target := analysis.NextActionTarget
			navURL := ToAbsolute(target.URL, ExtractDomain(currentURL))
			switch {
			case navURL != "" && navURL != currentURL:
				if e.tracker.ShouldSkip(navURL) {
					e.log.LogInfof("navigation target %s already visited, stopping", navURL)
					return r.result()
				}
				navCount++
				if err := e.navigate(ctx, r, navURL); err != nil {
					return r.failure("Navigation failed", err)
				}
				currentURL = navURL
				continue
			case target.LinkText != "":
				navCount++
				clicked, err := e.driver.ClickElement(ctx, navigateInstruction(target.LinkText))
				if err != nil {
					return r.failure("Navigation failed", err)
				}
				if !clicked {
					return r.result()
				}
				if err := sleepCtx(ctx, e.cfg.PageLoadWait); err != nil {
					return r.failure("Traversal cancelled", err)
				}
				if u, err := e.driver.CurrentURL(ctx); err == nil && u != "" {
					currentURL = u
				}
				e.tracker.MarkVisited(currentURL)
				r.visited = append(r.visited, currentURL)
				continue
			default:
				return r.result()
			}
		}

		if analysis.PageCategory == CategoryJobsListed {
			r.collect(e.tracker, "", analysis.JobsListedOnPage)

			pg := analysis.Pagination
			switch {
			case !pg.IsPaginatedPage && pg.HasMorePages:
				chunks, err := e.pager.HandleLoadMore(ctx, currentURL, "")
				if err != nil {
					return r.failure("Pagination failed", err)
				}
				e.collectChunks(ctx, r, currentURL, chunks)
				return r.result()
			case pg.IsPaginatedPage:
				pages, err := e.pager.HandlePagination(ctx, currentURL)
				if err != nil {
					return r.failure("Pagination failed", err)
				}
				if len(pages) > 1 {
					e.collectChunks(ctx, r, currentURL, pages[1:])
				}
				return r.result()
			default:
				return r.result()
			}
		}

		e.log.LogWarnf("unhandled page category %q at %s, stopping", analysis.PageCategory, currentURL)
		return r.result()
	}
}

// collectChunks analyzes extra page snapshots gathered by the pagination
// driver. Chunks the analyzer cannot read are skipped, not fatal.
func (e *Engine) collectChunks(ctx context.Context, r *run, pageURL string, chunks []string) {
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			return
		}
		analysis, err := e.analyzer.AnalyzeListing(ctx, pageURL, chunk)
		if err != nil {
			e.log.LogErrorf("analysis of paginated chunk %d failed: %v", i+1, err)
			continue
		}
		r.collect(e.tracker, "", analysis.JobsListedOnPage)
	}
}
