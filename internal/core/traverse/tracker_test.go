package traverse

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerVisitedAndScrapedAreSeparate(t *testing.T) {
	tr := NewURLTracker()

	tr.MarkVisited("https://example.com/careers")
	assert.True(t, tr.IsVisited("https://example.com/careers"))
	assert.False(t, tr.IsJobScraped("https://example.com/careers"))

	tr.MarkJobScraped("https://example.com/jobs/1")
	assert.True(t, tr.IsJobScraped("https://example.com/jobs/1"))
	assert.False(t, tr.IsVisited("https://example.com/jobs/1"))

	assert.Equal(t, TrackerStats{VisitedPages: 1, ScrapedJobs: 1}, tr.Stats())
}

func TestTrackerMembershipUsesNormalizedForm(t *testing.T) {
	tr := NewURLTracker()
	tr.MarkVisited("https://www.example.com/careers/")

	assert.True(t, tr.IsVisited("https://example.com/careers"))
	assert.True(t, tr.IsVisited("HTTPS://EXAMPLE.COM/careers?page=1"))
	assert.True(t, tr.ShouldSkip("https://example.com/careers#top"))
}

func TestTrackerShouldSkipCoversBothSets(t *testing.T) {
	tr := NewURLTracker()
	tr.MarkVisited("https://example.com/a")
	tr.MarkJobScraped("https://example.com/b")

	assert.True(t, tr.ShouldSkip("https://example.com/a"))
	assert.True(t, tr.ShouldSkip("https://example.com/b"))
	assert.False(t, tr.ShouldSkip("https://example.com/c"))
}

func TestTrackerFilterUnvisitedPreservesOrder(t *testing.T) {
	tr := NewURLTracker()
	tr.MarkVisited("https://example.com/2")
	tr.MarkJobScraped("https://example.com/4")

	got := tr.FilterUnvisited([]string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
		"https://example.com/4",
	})
	assert.Equal(t, []string{"https://example.com/1", "https://example.com/3"}, got,
		"scraped jobs are filtered the same as visited pages")
}

func TestTrackerEmptyURLIgnored(t *testing.T) {
	tr := NewURLTracker()
	tr.MarkVisited("")
	tr.MarkJobScraped("   ")
	assert.Equal(t, TrackerStats{}, tr.Stats())
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewURLTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			url := fmt.Sprintf("https://example.com/jobs/%d", n)
			tr.MarkVisited(url)
			tr.MarkJobScraped(url)
			tr.ShouldSkip(url)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, TrackerStats{VisitedPages: 50, ScrapedJobs: 50}, tr.Stats())
}
