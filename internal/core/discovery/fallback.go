package discovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly"

	"github.com/standardforever/job-scrapper/internal/logger"
)

// Fallback discovers career-page URLs by crawling the company site
// directly when web search finds nothing usable. It sweeps the
// homepage's links and then probes well-known job paths.
type Fallback struct {
	log *logger.Logger
}

func NewFallback() *Fallback {
	return &Fallback{log: logger.New("discovery")}
}

type FallbackOptions struct {
	TryCommonPaths      bool
	ExtractFromHomepage bool
}

func baseURL(domain string) string {
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return "https://" + strings.Trim(domain, "/")
}

// DiscoverJobURLs returns job-related URLs on the given domain, already
// passed through the domain, extension and keyword filters.
func (f *Fallback) DiscoverJobURLs(ctx context.Context, domain string, opts FallbackOptions) []string {
	discovered := map[string]struct{}{}
	base := baseURL(domain)

	if opts.ExtractFromHomepage {
		for _, u := range f.collectLinks(ctx, base) {
			discovered[u] = struct{}{}
		}
	}

	if opts.TryCommonPaths {
		for _, path := range CommonJobPaths {
			if ctx.Err() != nil {
				break
			}
			probe := base + path
			links, status := f.probePath(ctx, probe)
			if status == 0 || status >= 400 {
				continue
			}
			f.log.LogInfof("Found job page %s (status %d)", probe, status)
			discovered[probe] = struct{}{}
			for _, u := range links {
				discovered[u] = struct{}{}
			}
			if len(links) > 5 {
				break
			}
		}
	}

	all := make([]string, 0, len(discovered))
	for u := range discovered {
		all = append(all, u)
	}
	return FilterJobURLs(FilterWebPages(FilterByDomain(all, domain)))
}

// collectLinks fetches one page and returns every absolute anchor on it.
func (f *Fallback) collectLinks(ctx context.Context, pageURL string) []string {
	links, _ := f.crawl(ctx, pageURL)
	return links
}

// probePath fetches a candidate path and reports its links together
// with the HTTP status, so callers can tell a live careers page from a
// soft 404.
func (f *Fallback) probePath(ctx context.Context, pageURL string) ([]string, int) {
	return f.crawl(ctx, pageURL)
}

func (f *Fallback) crawl(ctx context.Context, pageURL string) ([]string, int) {
	var (
		mu     sync.Mutex
		links  []string
		seen   = map[string]struct{}{}
		status int
	)

	c := colly.NewCollector(colly.MaxDepth(1))
	c.SetRequestTimeout(15 * time.Second)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(r *colly.Response) {
		mu.Lock()
		status = r.StatusCode
		mu.Unlock()
	})
	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		if r != nil {
			status = r.StatusCode
		}
		mu.Unlock()
		f.log.LogDebugf("Fetch failed %s: %v", pageURL, err)
	})
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" || !strings.HasPrefix(link, "http") {
			return
		}
		mu.Lock()
		if _, ok := seen[link]; !ok {
			seen[link] = struct{}{}
			links = append(links, link)
		}
		mu.Unlock()
	})

	if err := c.Visit(pageURL); err != nil {
		f.log.LogDebugf("Visit failed %s: %v", pageURL, err)
		return nil, status
	}
	c.Wait()
	return links, status
}
