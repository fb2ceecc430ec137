package traverse

import "sync"

// URLTracker is the visited set shared by every traversal in a run. It
// keeps pages and scraped job URLs in separate sets so a listings page
// revisit and a duplicate posting are distinguishable. Safe for
// concurrent use.
type URLTracker struct {
	mu      sync.Mutex
	visited map[string]struct{}
	scraped map[string]struct{}
}

// TrackerStats is a point-in-time count of both sets.
type TrackerStats struct {
	VisitedPages int `json:"visited_pages"`
	ScrapedJobs  int `json:"scraped_jobs"`
}

func NewURLTracker() *URLTracker {
	return &URLTracker{
		visited: make(map[string]struct{}),
		scraped: make(map[string]struct{}),
	}
}

func (t *URLTracker) MarkVisited(url string) {
	key := Normalize(url)
	if key == "" {
		return
	}
	t.mu.Lock()
	t.visited[key] = struct{}{}
	t.mu.Unlock()
}

func (t *URLTracker) MarkJobScraped(url string) {
	key := Normalize(url)
	if key == "" {
		return
	}
	t.mu.Lock()
	t.scraped[key] = struct{}{}
	t.mu.Unlock()
}

func (t *URLTracker) IsVisited(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.visited[Normalize(url)]
	return ok
}

func (t *URLTracker) IsJobScraped(url string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.scraped[Normalize(url)]
	return ok
}

// ShouldSkip reports whether url has been seen as either a visited page
// or an already-scraped job.
func (t *URLTracker) ShouldSkip(url string) bool {
	key := Normalize(url)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.visited[key]; ok {
		return true
	}
	_, ok := t.scraped[key]
	return ok
}

// FilterUnvisited returns the subset of urls ShouldSkip would let
// through, in input order. A URL already scraped as a job is filtered
// out the same as a visited page.
func (t *URLTracker) FilterUnvisited(urls []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		key := Normalize(u)
		if _, ok := t.visited[key]; ok {
			continue
		}
		if _, ok := t.scraped[key]; ok {
			continue
		}
		out = append(out, u)
	}
	return out
}

func (t *URLTracker) Stats() TrackerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TrackerStats{VisitedPages: len(t.visited), ScrapedJobs: len(t.scraped)}
}
