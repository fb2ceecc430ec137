package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/standardforever/job-scrapper/internal/core/traverse"
	"github.com/standardforever/job-scrapper/internal/logger"
	"github.com/standardforever/job-scrapper/internal/utils/markdown"
)

// pager is what the extractor needs from a driver: direct access to the
// live page. *Session satisfies it.
type pager interface {
	Page() playwright.Page
}

// contentSignature is a cheap fingerprint of the rendered page used to
// detect when async content has settled.
type contentSignature struct {
	TextLength          int
	ElementCount        int
	LinkCount           int
	AsyncLoadIndicators int
}

const signatureJS = `() => {
	const visibleText = document.body ? document.body.innerText : '';
	const visibleElements = Array.from(document.querySelectorAll('*')).filter(el => {
		const style = window.getComputedStyle(el);
		const tagName = el.tagName.toLowerCase();
		return style.display !== 'none' &&
			   style.visibility !== 'hidden' &&
			   !['script', 'style', 'noscript', 'meta', 'link', 'title'].includes(tagName);
	});
	const links = document.querySelectorAll('a[href]');
	const loadingIndicators = document.querySelectorAll([
		'.loading', '.spinner', '.skeleton', '.placeholder', '.loader',
		'[data-loading]', '[data-lazy]', '[aria-busy="true"]', '.shimmer'
	].join(', '));
	return {
		textLength: visibleText.length,
		elementCount: visibleElements.length,
		linkCount: links.length,
		asyncLoadIndicators: loadingIndicators.length
	};
}`

// ExtractorConfig tunes the settle wait before reading the DOM.
type ExtractorConfig struct {
	// SettleTimeout caps how long we wait for the signature to stop
	// changing before extracting anyway.
	SettleTimeout time.Duration
	PollInterval  time.Duration
}

func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		SettleTimeout: 7 * time.Second,
		PollInterval:  500 * time.Millisecond,
	}
}

// DOMExtractor turns the driver's current page into cleaned markdown
// text. It implements traverse.ContentExtractor.
type DOMExtractor struct {
	cfg ExtractorConfig
	log *logger.Logger
}

func NewDOMExtractor(cfg ExtractorConfig) *DOMExtractor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultExtractorConfig().PollInterval
	}
	return &DOMExtractor{cfg: cfg, log: logger.New("Extractor")}
}

func (e *DOMExtractor) Extract(ctx context.Context, driver traverse.PageDriver) (string, error) {
	p, ok := driver.(pager)
	if !ok {
		return "", fmt.Errorf("driver does not expose a page")
	}
	page := p.Page()

	e.waitForSettledContent(ctx, page)

	html, err := page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	text := markdown.ConvertHTMLToMarkdown(html)
	text = markdown.RemoveDuplicates(text)
	text = markdown.CleanMarkdownBoilerplate(text)
	e.log.LogDebugf("extracted %d chars from %s", len(text), page.URL())
	return text, nil
}

// waitForSettledContent polls the content signature until two reads in a
// row match and no loading indicators remain, or the timeout passes.
// Extraction proceeds either way.
func (e *DOMExtractor) waitForSettledContent(ctx context.Context, page playwright.Page) {
	if e.cfg.SettleTimeout <= 0 {
		return
	}
	deadline := time.Now().Add(e.cfg.SettleTimeout)
	prev, err := e.signature(page)
	if err != nil {
		return
	}
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(e.cfg.PollInterval):
		}
		cur, err := e.signature(page)
		if err != nil {
			return
		}
		if cur == prev && cur.AsyncLoadIndicators == 0 {
			return
		}
		prev = cur
	}
	e.log.LogDebugf("content did not settle within %s, extracting anyway", e.cfg.SettleTimeout)
}

func (e *DOMExtractor) signature(page playwright.Page) (contentSignature, error) {
	raw, err := page.Evaluate(signatureJS)
	if err != nil {
		return contentSignature{}, err
	}
	data, ok := raw.(map[string]interface{})
	if !ok {
		return contentSignature{}, fmt.Errorf("unexpected signature result %T", raw)
	}
	toInt := func(v interface{}) int {
		switch val := v.(type) {
		case float64:
			return int(val)
		case int:
			return val
		default:
			return 0
		}
	}
	return contentSignature{
		TextLength:          toInt(data["textLength"]),
		ElementCount:        toInt(data["elementCount"]),
		LinkCount:           toInt(data["linkCount"]),
		AsyncLoadIndicators: toInt(data["asyncLoadIndicators"]),
	}, nil
}
