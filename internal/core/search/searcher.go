package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/standardforever/job-scrapper/internal/logger"
)

// Engine identifies which web search engine to drive.
type Engine string

const (
	EngineDuckDuckGo Engine = "duckduckgo"
	EngineGoogle     Engine = "google"
)

// searchEngineDomains are hosts that belong to the engines themselves
// and never count as results.
var searchEngineDomains = []string{
	"google.com", "google.co", "gstatic.com", "youtube.com",
	"duckduckgo.com", "improving.duckduckgo.com",
	"accounts.google", "policies.google", "support.google",
	"webcache.googleusercontent", "translate.google",
}

var googleResultSelectors = []string{
	"div.g a[href]",
	"div.yuRUbf a[href]",
	"div[data-sokoban-container] a[href]",
	"a[jsname][href]",
	"h3 a[href]",
	"div#search a[href]",
}

var googleContainerSelectors = []string{
	"#search",
	"#rso",
	"div#search",
	"div#rcnt",
}

type Config struct {
	MaxRetries      int
	SearchTimeout   float64 // milliseconds
	ResultsWaitTime time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		SearchTimeout:   10000,
		ResultsWaitTime: 2 * time.Second,
	}
}

// Result carries the outcome of one search attempt.
type Result struct {
	URLs    []string `json:"urls"`
	Query   string   `json:"query"`
	Engine  Engine   `json:"engine"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
}

// Searcher drives a live search engine session through a browser page
// to find candidate career-site URLs for a company.
type Searcher struct {
	page playwright.Page
	cfg  Config
	log  *logger.Logger
}

func NewSearcher(page playwright.Page, cfg Config) *Searcher {
	if cfg.MaxRetries <= 0 {
		cfg = DefaultConfig()
	}
	return &Searcher{page: page, cfg: cfg, log: logger.New("search")}
}

// Search runs the query against the chosen engine, retrying transient
// failures. It never returns an error; failures are reported in the
// Result so callers can fall back to other discovery paths.
func (s *Searcher) Search(ctx context.Context, query string, engine Engine) *Result {
	run := s.searchDuckDuckGo
	if engine == EngineGoogle {
		run = s.searchGoogle
	}

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return &Result{Query: query, Engine: engine, Error: err.Error()}
		}
		urls, err := run(query)
		if err == nil {
			return &Result{URLs: urls, Query: query, Engine: engine, Success: true}
		}
		s.log.LogWarnf("Search attempt %d/%d failed for %q: %v", attempt+1, s.cfg.MaxRetries, query, err)
		if attempt == s.cfg.MaxRetries-1 {
			return &Result{Query: query, Engine: engine, Error: err.Error()}
		}
		time.Sleep(time.Second)
	}
	return &Result{Query: query, Engine: engine, Error: "max retries exceeded"}
}

func (s *Searcher) searchDuckDuckGo(query string) ([]string, error) {
	if _, err := s.page.Goto("https://duckduckgo.com/"); err != nil {
		return nil, fmt.Errorf("open duckduckgo: %w", err)
	}

	box := s.page.Locator(`input[name="q"]`)
	if err := box.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(s.cfg.SearchTimeout)}); err != nil {
		return nil, fmt.Errorf("search box not found: %w", err)
	}
	if err := box.Fill(query); err != nil {
		return nil, err
	}
	if err := box.Press("Enter"); err != nil {
		return nil, err
	}

	container := s.page.Locator("ol.react-results--main")
	if err := container.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(s.cfg.SearchTimeout)}); err != nil {
		return nil, fmt.Errorf("results did not load: %w", err)
	}
	time.Sleep(s.cfg.ResultsWaitTime)

	urls, err := s.extractHrefs(s.page.Locator(`article[data-testid="result"] a[href]`))
	if err != nil {
		return nil, err
	}
	return dedupeURLs(urls), nil
}

func (s *Searcher) searchGoogle(query string) ([]string, error) {
	if _, err := s.page.Goto("https://www.google.com/"); err != nil {
		return nil, fmt.Errorf("open google: %w", err)
	}

	s.dismissGoogleCookiePopup()

	box := s.page.Locator(`input[name="q"]`)
	if err := box.WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(s.cfg.SearchTimeout)}); err != nil {
		return nil, fmt.Errorf("search box not found: %w", err)
	}
	if err := box.Fill(query); err != nil {
		return nil, err
	}
	if err := box.Press("Enter"); err != nil {
		return nil, err
	}

	s.waitForGoogleResults()
	time.Sleep(s.cfg.ResultsWaitTime)

	urls := s.extractGoogleResults()
	if len(urls) == 0 {
		urls = s.extractAllPageLinks()
	}
	return dedupeURLs(urls), nil
}

func (s *Searcher) dismissGoogleCookiePopup() {
	for _, sel := range []string{
		"button:has-text('Accept all')",
		"button:has-text('I agree')",
		"button:has-text('Reject all')",
	} {
		err := s.page.Locator(sel).Click(playwright.LocatorClickOptions{Timeout: playwright.Float(3000)})
		if err == nil {
			return
		}
	}
}

func (s *Searcher) waitForGoogleResults() bool {
	for _, sel := range googleContainerSelectors {
		err := s.page.Locator(sel).WaitFor(playwright.LocatorWaitForOptions{Timeout: playwright.Float(5000)})
		if err == nil {
			return true
		}
	}
	return false
}

func (s *Searcher) extractGoogleResults() []string {
	for _, sel := range googleResultSelectors {
		loc := s.page.Locator(sel)
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		urls, err := s.extractHrefs(loc)
		if err == nil && len(urls) > 0 {
			return urls
		}
	}
	return nil
}

// extractAllPageLinks is the last-resort Google path: sweep every
// anchor with meaningful link text.
func (s *Searcher) extractAllPageLinks() []string {
	loc := s.page.Locator("a[href]")
	count, err := loc.Count()
	if err != nil {
		return nil
	}
	var urls []string
	for i := 0; i < count; i++ {
		link := loc.Nth(i)
		href, err := link.GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		text, err := link.InnerText()
		if err != nil {
			continue
		}
		if strings.HasPrefix(href, "http") && !isSearchEngineURL(href) && len(strings.TrimSpace(text)) > 3 {
			urls = append(urls, href)
		}
	}
	return urls
}

func (s *Searcher) extractHrefs(loc playwright.Locator) ([]string, error) {
	count, err := loc.Count()
	if err != nil {
		return nil, err
	}
	var urls []string
	for i := 0; i < count; i++ {
		href, err := loc.Nth(i).GetAttribute("href")
		if err != nil || href == "" {
			continue
		}
		if strings.HasPrefix(href, "http") && !isSearchEngineURL(href) {
			urls = append(urls, href)
		}
	}
	return urls, nil
}

func isSearchEngineURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, domain := range searchEngineDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

// dedupeURLs removes duplicates while keeping first-seen order, which
// preserves the engine's result ranking.
func dedupeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
