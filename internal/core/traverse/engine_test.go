package traverse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeJobsSkipsProcessedSeed(t *testing.T) {
	tracker := NewURLTracker()
	tracker.MarkVisited("https://example.com/careers")
	driver := &fakeDriver{}
	engine := NewEngine(driver, &fakeExtractor{}, &fakeAnalyzer{}, tracker, fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com/careers")

	assert.True(t, res.Success)
	assert.Empty(t, res.Jobs)
	assert.Empty(t, driver.navigations, "no navigation for a skipped seed")
	assert.Equal(t, "URL already processed", res.Message)
}

func TestScrapeJobsCollectsListedJobs(t *testing.T) {
	tracker := NewURLTracker()
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		listedPage(
			ListedJob{Title: "Engineer", JobURL: "https://example.com/jobs/1"},
			ListedJob{Title: "Designer", JobURL: "https://example.com/jobs/2"},
			ListedJob{Title: "No link"},
		),
	}}
	engine := NewEngine(&fakeDriver{}, &fakeExtractor{texts: []string{"listing"}}, analyzer, tracker, fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com/careers")

	require.True(t, res.Success)
	require.Len(t, res.Jobs, 3)
	assert.Equal(t, "Engineer", res.Jobs[0].Title)
	// a listing entry without its own link keeps an empty URL; only
	// single-posting pages fall back to the page URL
	assert.Equal(t, "", res.Jobs[2].URL)
	assert.Equal(t, []string{"https://example.com/jobs/1", "https://example.com/jobs/2"}, res.JobDetailURLs)
	assert.True(t, tracker.IsJobScraped("https://example.com/jobs/1"))
	assert.False(t, tracker.IsJobScraped("https://example.com/careers"),
		"the listings page must not enter the scraped set")
	assert.True(t, tracker.IsVisited("https://example.com/careers"))
	assert.Equal(t, []string{"https://example.com/careers"}, res.VisitedURLs)
}

func TestScrapeJobsSingleJobPostingIsFinal(t *testing.T) {
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		{
			PageCategory:     CategorySingleJob,
			NextAction:       ActionScrapeSingleJob,
			JobsListedOnPage: []ListedJob{{Title: "Only role"}},
			// even a navigate hint must not be followed from a single posting
			NextActionTarget: NextActionTarget{URL: "https://example.com/other"},
		},
	}}
	driver := &fakeDriver{}
	engine := NewEngine(driver, &fakeExtractor{texts: []string{"job page"}}, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com/jobs/1")

	require.True(t, res.Success)
	require.Len(t, res.Jobs, 1)
	assert.Equal(t, "https://example.com/jobs/1", res.Jobs[0].URL)
	assert.Len(t, driver.navigations, 1, "no further navigation after a single posting")
}

func TestScrapeJobsNotJobRelatedStops(t *testing.T) {
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		{PageCategory: CategoryNotJobRelated, NextAction: ActionStop},
	}}
	engine := NewEngine(&fakeDriver{}, &fakeExtractor{texts: []string{"about us"}}, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com")

	assert.True(t, res.Success)
	assert.Empty(t, res.Jobs)
}

func TestScrapeJobsFollowsNavigationThenCollects(t *testing.T) {
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		navPage("/careers", ""),
		listedPage(ListedJob{Title: "Engineer", JobURL: "https://example.com/jobs/1"}),
	}}
	driver := &fakeDriver{}
	engine := NewEngine(driver, &fakeExtractor{texts: []string{"home", "listing"}}, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com")

	require.True(t, res.Success)
	require.Len(t, res.Jobs, 1)
	// relative target resolved against the current page's host
	assert.Equal(t, []string{"https://example.com", "https://example.com/careers"}, driver.navigations)
	assert.Equal(t, []string{"https://example.com", "https://example.com/careers"}, res.VisitedURLs)
}

func TestScrapeJobsNavigationHopLimit(t *testing.T) {
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		navPage("https://example.com/a", ""),
		navPage("https://example.com/b", ""),
		navPage("https://example.com/c", ""),
	}}
	driver := &fakeDriver{}
	engine := NewEngine(driver, &fakeExtractor{texts: []string{"page"}}, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com")

	assert.True(t, res.Success)
	assert.Empty(t, res.Jobs)
	// seed plus at most MaxNavigation hops
	assert.Len(t, driver.navigations, 3)
}

func TestScrapeJobsNavigationCycleStops(t *testing.T) {
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		navPage("https://example.com/careers", ""),
		navPage("https://example.com/", ""), // points back at the seed
	}}
	driver := &fakeDriver{}
	engine := NewEngine(driver, &fakeExtractor{texts: []string{"page"}}, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com")

	assert.True(t, res.Success)
	assert.Len(t, driver.navigations, 2, "the revisit is detected before navigating")
}

func TestScrapeJobsNavigationByLinkText(t *testing.T) {
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		navPage("", "View open roles"),
		listedPage(ListedJob{Title: "Engineer", JobURL: "https://example.com/jobs/1"}),
	}}
	driver := &fakeDriver{clickQueue: []bool{true}}
	engine := NewEngine(driver, &fakeExtractor{texts: []string{"home", "listing"}}, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com")

	require.True(t, res.Success)
	require.Len(t, res.Jobs, 1)
	require.Len(t, driver.clicks, 1)
	assert.Contains(t, driver.clicks[0], "View open roles")
}

func TestScrapeJobsAnalyzerFailureReturnsPartialResult(t *testing.T) {
	analyzer := &fakeAnalyzer{errs: []error{errors.New("model unavailable")}}
	engine := NewEngine(&fakeDriver{}, &fakeExtractor{texts: []string{"page"}}, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com/careers")

	assert.False(t, res.Success)
	assert.Equal(t, "Ai analysis failed", res.Message)
	assert.Equal(t, "model unavailable", res.Error)
	assert.Equal(t, []string{"https://example.com/careers"}, res.VisitedURLs)
}

func TestScrapeJobsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := NewEngine(&fakeDriver{}, &fakeExtractor{texts: []string{"page"}}, &fakeAnalyzer{}, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(ctx, "https://example.com/careers")

	assert.False(t, res.Success)
	assert.Equal(t, context.Canceled.Error(), res.Error)
}

func TestScrapeJobsPaginatedListing(t *testing.T) {
	// initial analysis says paginated; two next-clicks succeed, third
	// reports no further pagination. Each extra page is analyzed again.
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		func() *PageAnalysis {
			a := listedPage(ListedJob{Title: "Page1 role", JobURL: "https://example.com/jobs/1"})
			a.Pagination = PaginationInfo{IsPaginatedPage: true, HasMorePages: true}
			return a
		}(),
		listedPage(ListedJob{Title: "Page2 role", JobURL: "https://example.com/jobs/2"}),
		listedPage(ListedJob{Title: "Page3 role", JobURL: "https://example.com/jobs/3"}),
	}}
	driver := &fakeDriver{clickQueue: []bool{true, true, false}}
	extractor := &fakeExtractor{texts: []string{"page one", "page one again", "page two", "page three"}}
	engine := NewEngine(driver, extractor, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com/careers")

	require.True(t, res.Success)
	titles := make([]string, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		titles = append(titles, j.Title)
	}
	assert.Equal(t, []string{"Page1 role", "Page2 role", "Page3 role"}, titles)
}

func TestScrapeJobsLoadMoreListing(t *testing.T) {
	analyzer := &fakeAnalyzer{analyses: []*PageAnalysis{
		func() *PageAnalysis {
			a := listedPage(ListedJob{Title: "Initial role", JobURL: "https://example.com/jobs/1"})
			a.Pagination = PaginationInfo{IsPaginatedPage: false, HasMorePages: true}
			return a
		}(),
		listedPage(
			ListedJob{Title: "Initial role", JobURL: "https://example.com/jobs/1"},
			ListedJob{Title: "Loaded role", JobURL: "https://example.com/jobs/2"},
		),
	}}
	driver := &fakeDriver{clickQueue: []bool{true, false}}
	extractor := &fakeExtractor{texts: []string{"roles", "roles", "roles\nmore roles"}}
	engine := NewEngine(driver, extractor, analyzer, NewURLTracker(), fastEngineConfig())

	res := engine.ScrapeJobs(context.Background(), "https://example.com/careers")

	require.True(t, res.Success)
	require.Len(t, res.Jobs, 3)
	assert.Equal(t, "Loaded role", res.Jobs[2].Title)
}
