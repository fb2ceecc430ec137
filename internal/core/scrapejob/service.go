package scrapejob

import (
	"context"
	"fmt"

	"github.com/standardforever/job-scrapper/internal/core/analyzer"
	"github.com/standardforever/job-scrapper/internal/core/browser"
	"github.com/standardforever/job-scrapper/internal/core/discovery"
	"github.com/standardforever/job-scrapper/internal/core/jobstore"
	"github.com/standardforever/job-scrapper/internal/core/search"
	"github.com/standardforever/job-scrapper/internal/core/traverse"
	"github.com/standardforever/job-scrapper/internal/logger"
	"github.com/standardforever/job-scrapper/internal/platform/eino"
)

// Config tunes one domain-scraping run.
type Config struct {
	Headless     bool
	Engine       traverse.EngineConfig
	Extractor    browser.ExtractorConfig
	Search       search.Config
	SaveToStore  bool
	SearchEngine search.Engine
}

func DefaultConfig() Config {
	return Config{
		Headless:     true,
		Engine:       traverse.DefaultEngineConfig(),
		Extractor:    browser.DefaultExtractorConfig(),
		Search:       search.DefaultConfig(),
		SaveToStore:  true,
		SearchEngine: search.EngineDuckDuckGo,
	}
}

// DomainResult is the outcome of scraping one company domain.
type DomainResult struct {
	Domain       string                   `json:"domain"`
	SeedURLs     []string                 `json:"seed_urls"`
	UsedFallback bool                     `json:"used_fallback"`
	Jobs         []map[string]interface{} `json:"jobs"`
	JobsFound    int                      `json:"jobs_found"`
	JobsSaved    int                      `json:"jobs_saved"`
	VisitedPages int                      `json:"visited_pages"`
	FailedSeeds  []string                 `json:"failed_seeds,omitempty"`
}

// Service runs the full discovery-to-enrichment pipeline for a company
// domain: search for career pages, fall back to crawling the site
// directly, traverse each seed for listings, then visit every posting
// for structured details.
type Service struct {
	llm      *eino.Service
	store    *jobstore.Store
	fallback *discovery.Fallback
	cfg      Config
	log      *logger.Logger
}

func New(llm *eino.Service, store *jobstore.Store, cfg Config) *Service {
	return &Service{
		llm:      llm,
		store:    store,
		fallback: discovery.NewFallback(),
		cfg:      cfg,
		log:      logger.New("scrapejob"),
	}
}

// ScrapeDomain processes a single domain end to end. Each call opens
// its own browser session, so concurrent calls never share page state.
func (s *Service) ScrapeDomain(ctx context.Context, domain string) (*DomainResult, error) {
	session, err := browser.NewSession(browser.Config{Headless: s.cfg.Headless, LLM: s.llm})
	if err != nil {
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	defer session.Close()

	result := &DomainResult{Domain: domain, Jobs: []map[string]interface{}{}}

	seeds := s.discoverSeeds(ctx, session, domain, result)
	if len(seeds) == 0 {
		s.log.LogWarnf("No job URLs found for %s even with fallback", domain)
		return result, nil
	}
	result.SeedURLs = seeds

	extractor := browser.NewDOMExtractor(s.cfg.Extractor)
	pageAnalyzer := analyzer.New(s.llm)
	tracker := traverse.NewURLTracker()
	engine := traverse.NewEngine(session, extractor, pageAnalyzer, tracker, s.cfg.Engine)

	var listed []traverse.JobEntry
	for _, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		if tracker.ShouldSkip(seed) {
			s.log.LogDebugf("Skipping already processed seed %s", seed)
			continue
		}
		run := engine.ScrapeJobs(ctx, seed)
		if !run.Success {
			result.FailedSeeds = append(result.FailedSeeds, seed)
			s.log.LogWarnf("Traversal failed for %s: %s", seed, run.Message)
		}
		listed = append(listed, run.Jobs...)
	}
	result.VisitedPages = tracker.Stats().VisitedPages
	s.log.LogInfof("Found %d job listings across %d seeds for %s", len(listed), len(seeds), domain)

	if len(listed) == 0 {
		return result, nil
	}

	enricher := traverse.NewEnricher(session, extractor, pageAnalyzer, tracker, s.cfg.Engine.PageLoadWait)
	enriched := enricher.ScrapeJobDetails(ctx, domain, listed, domain, true)

	for _, job := range enriched {
		if len(job.Details) == 0 {
			continue
		}
		result.Jobs = append(result.Jobs, job.Details)
	}
	result.JobsFound = len(result.Jobs)

	if s.cfg.SaveToStore && s.store != nil {
		result.JobsSaved = s.store.SaveJobs(ctx, result.Jobs)
	}
	return result, nil
}

// discoverSeeds finds candidate career-page URLs: web search first,
// homepage crawl when search yields nothing.
func (s *Service) discoverSeeds(ctx context.Context, session *browser.Session, domain string, result *DomainResult) []string {
	searcher := search.NewSearcher(session.Page(), s.cfg.Search)
	query := fmt.Sprintf("%s jobs", domain)

	var seeds []string
	searchResult := searcher.Search(ctx, query, s.cfg.SearchEngine)
	if searchResult.Success {
		domainFiltered := discovery.FilterByDomain(searchResult.URLs, domain)
		s.log.LogInfof("Domain filter kept %d of %d search results", len(domainFiltered), len(searchResult.URLs))
		seeds = discovery.FilterJobURLs(discovery.FilterWebPages(domainFiltered))
	}

	if len(seeds) == 0 {
		s.log.LogWarnf("No job URLs from search for %s, trying fallback discovery", domain)
		result.UsedFallback = true
		seeds = s.fallback.DiscoverJobURLs(ctx, domain, discovery.FallbackOptions{
			ExtractFromHomepage: true,
		})
		s.log.LogInfof("Fallback discovered %d URLs", len(seeds))
	}
	return seeds
}

// ScrapeFunc adapts the pipeline for batch workers, which expect raw
// job documents per URL.
func (s *Service) ScrapeFunc() func(ctx context.Context, domain string) ([]map[string]interface{}, error) {
	return func(ctx context.Context, domain string) ([]map[string]interface{}, error) {
		result, err := s.ScrapeDomain(ctx, domain)
		if err != nil {
			return nil, err
		}
		return result.Jobs, nil
	}
}
