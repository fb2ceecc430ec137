package traverse

import (
	"context"
	"fmt"
	"time"

	"github.com/standardforever/job-scrapper/internal/logger"
)

const nextPageInstruction = "Check if pagination navigation is visible on the page. " +
	"If a 'Next' page button or link is present, click it once only to move forward by one page. " +
	"Do not click 'Previous' or any earlier page numbers. " +
	"Do not repeat the action. " +
	"Do not extract or analyse job data. " +
	"Stop immediately after the click."

func loadMoreInstruction(buttonText string) string {
	if buttonText == "" {
		buttonText = "Load More"
	}
	return fmt.Sprintf("Find the clickable element whose visible text most closely matches '%s' "+
		"and is used to load or show more job listings on this page.", buttonText)
}

// PaginationConfig bounds a pagination walk. Zero waits are valid and
// used by tests.
type PaginationConfig struct {
	MaxClicks      int
	WaitAfterClick time.Duration
	ContentWait    time.Duration
}

func DefaultPaginationConfig() PaginationConfig {
	return PaginationConfig{
		MaxClicks:      10,
		WaitAfterClick: 5 * time.Second,
		ContentWait:    7 * time.Second,
	}
}

// PaginationDriver walks numbered-pagination and load-more listings,
// collecting page text along the way. It never walks backwards and
// never clicks more than MaxClicks times.
type PaginationDriver struct {
	driver    PageDriver
	extractor ContentExtractor
	cfg       PaginationConfig
	log       *logger.Logger
}

func NewPaginationDriver(driver PageDriver, extractor ContentExtractor, cfg PaginationConfig) *PaginationDriver {
	if cfg.MaxClicks <= 0 {
		cfg.MaxClicks = DefaultPaginationConfig().MaxClicks
	}
	return &PaginationDriver{
		driver:    driver,
		extractor: extractor,
		cfg:       cfg,
		log:       logger.New("Pagination"),
	}
}

func (p *PaginationDriver) extract(ctx context.Context) (string, error) {
	if err := sleepCtx(ctx, p.cfg.ContentWait); err != nil {
		return "", err
	}
	return p.extractor.Extract(ctx, p.driver)
}

// HandlePagination clicks through numbered pages starting from the page
// currently loaded, returning one text snapshot per page. The result
// holds at most MaxClicks+1 entries. When a click lands on a page with
// no further pagination the loop stops without extracting it again.
func (p *PaginationDriver) HandlePagination(ctx context.Context, baseURL string) ([]string, error) {
	p.log.LogInfof("handling pagination for %s", baseURL)

	content, err := p.extract(ctx)
	if err != nil {
		return nil, err
	}
	allContents := []string{content}
	p.log.LogDebugf("scraped initial page (%d chars)", len(content))

	clickCount := 0
	for clickCount < p.cfg.MaxClicks {
		if err := ctx.Err(); err != nil {
			return allContents, err
		}
		clicked, err := p.driver.ClickElement(ctx, nextPageInstruction)
		if err != nil {
			return allContents, err
		}
		clickCount++
		if !clicked {
			p.log.LogDebugf("no more pagination after %d clicks", clickCount)
			break
		}
		content, err = p.extract(ctx)
		if err != nil {
			return allContents, err
		}
		allContents = append(allContents, content)
		p.log.LogDebugf("scraped page %d (%d chars)", clickCount+1, len(content))
	}
	return allContents, nil
}

// HandleLoadMore repeatedly clicks the load-more control and stitches
// the growing page into one text, deduplicating the re-rendered prefix.
// The combined text comes back split into analyzer-sized chunks.
func (p *PaginationDriver) HandleLoadMore(ctx context.Context, baseURL, buttonText string) ([]string, error) {
	p.log.LogInfof("handling load-more for %s", baseURL)

	combined, err := p.extract(ctx)
	if err != nil {
		return nil, err
	}

	instruction := loadMoreInstruction(buttonText)
	clickCount := 0
	for clickCount < p.cfg.MaxClicks {
		if err := ctx.Err(); err != nil {
			return SplitIntoChunks(combined), err
		}
		clickCount++
		clicked, err := p.driver.ClickElement(ctx, instruction)
		if err != nil {
			return SplitIntoChunks(combined), err
		}
		if !clicked {
			p.log.LogDebugf("load-more control gone after %d clicks", clickCount)
			break
		}
		if err := sleepCtx(ctx, p.cfg.WaitAfterClick); err != nil {
			return SplitIntoChunks(combined), err
		}
		content, err := p.extract(ctx)
		if err != nil {
			return SplitIntoChunks(combined), err
		}
		combined = AppendNonOverlapping(combined, content)
	}
	return SplitIntoChunks(combined), nil
}

// sleepCtx sleeps for d unless ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
