package traverse

import (
	"context"
	"errors"
	"sync"
)

// fakeDriver scripts a browser session: navigations record the URL,
// clicks pop answers off a queue.
type fakeDriver struct {
	mu          sync.Mutex
	navigations []string
	clicks      []string
	clickQueue  []bool
	navErr      error
	currentURL  string
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.navErr != nil {
		return d.navErr
	}
	d.navigations = append(d.navigations, url)
	d.currentURL = url
	return nil
}

func (d *fakeDriver) CurrentURL(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentURL, nil
}

func (d *fakeDriver) ClickElement(ctx context.Context, instruction string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks = append(d.clicks, instruction)
	if len(d.clickQueue) == 0 {
		return false, nil
	}
	ok := d.clickQueue[0]
	d.clickQueue = d.clickQueue[1:]
	return ok, nil
}

// fakeExtractor returns texts in sequence, repeating the last one when
// the script runs out.
type fakeExtractor struct {
	mu    sync.Mutex
	texts []string
	calls int
	err   error
}

func (e *fakeExtractor) Extract(ctx context.Context, driver PageDriver) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return "", e.err
	}
	e.calls++
	if len(e.texts) == 0 {
		return "", nil
	}
	if e.calls <= len(e.texts) {
		return e.texts[e.calls-1], nil
	}
	return e.texts[len(e.texts)-1], nil
}

// fakeAnalyzer returns scripted listing analyses in call order.
type fakeAnalyzer struct {
	mu        sync.Mutex
	analyses  []*PageAnalysis
	errs      []error
	calls     int
	detail    map[string]interface{}
	detailErr error
}

var errScriptExhausted = errors.New("analyzer script exhausted")

func (a *fakeAnalyzer) AnalyzeListing(ctx context.Context, pageURL, text string) (*PageAnalysis, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.calls
	a.calls++
	if i < len(a.errs) && a.errs[i] != nil {
		return nil, a.errs[i]
	}
	if i >= len(a.analyses) {
		return nil, errScriptExhausted
	}
	return a.analyses[i], nil
}

func (a *fakeAnalyzer) AnalyzeDetail(ctx context.Context, mainDomain, text string) (map[string]interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detailErr != nil {
		return nil, a.detailErr
	}
	return a.detail, nil
}

func listedPage(jobs ...ListedJob) *PageAnalysis {
	return &PageAnalysis{
		PageCategory:     CategoryJobsListed,
		NextAction:       ActionScrapeJobs,
		JobsListedOnPage: jobs,
	}
}

func navPage(targetURL, linkText string) *PageAnalysis {
	return &PageAnalysis{
		PageCategory: CategoryNavigationNeeded,
		NextAction:   ActionNavigate,
		NextActionTarget: NextActionTarget{
			URL:      targetURL,
			LinkText: linkText,
		},
	}
}

func fastEngineConfig() EngineConfig {
	return EngineConfig{
		MaxNavigation: 2,
		PageLoadWait:  0,
		Pagination:    PaginationConfig{MaxClicks: 10},
	}
}
