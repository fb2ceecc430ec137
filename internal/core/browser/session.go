package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/standardforever/job-scrapper/internal/logger"
	"github.com/standardforever/job-scrapper/internal/platform/eino"
	"github.com/standardforever/job-scrapper/prompts"
)

// Config controls how a browser session is launched.
type Config struct {
	Headless bool
	// LLM, when set, resolves plain-text click instructions against the
	// page's clickable elements. Without it a text-match heuristic is
	// used.
	LLM *eino.Service
}

// Session owns one headless browser page for the lifetime of a
// traversal. It implements traverse.PageDriver.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	llm     *eino.Service
	prompts *prompts.SystemPrompts
	log     *logger.Logger
}

func NewSession(cfg Config) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright run: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-dev-shm-usage",
			"--disable-blink-features=AutomationControlled",
			"--disable-web-security",
			"--no-first-run",
			"--disable-default-apps",
			"--disable-extensions",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch: %w", err)
	}

	profile := defaultProfiles[rand.Intn(len(defaultProfiles))]
	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:        playwright.String(profile.UserAgent),
		ExtraHttpHeaders: headersFor(profile),
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new context: %w", err)
	}
	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("new page: %w", err)
	}

	return &Session{
		pw:      pw,
		browser: browser,
		page:    page,
		llm:     cfg.LLM,
		prompts: prompts.NewSystemPrompts(),
		log:     logger.New("Browser"),
	}, nil
}

// Page exposes the underlying playwright page for collaborators that
// read the DOM directly, such as the content extractor.
func (s *Session) Page() playwright.Page { return s.page }

func (s *Session) Close() error {
	err := s.browser.Close()
	if stopErr := s.pw.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// Navigate loads url, trying a fast domcontentloaded wait first and
// falling back to a full load with a longer timeout, the same two-step
// the scrape path uses.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(10000),
	})
	if err != nil {
		_, err = s.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   playwright.Float(20000),
		})
		if err != nil {
			return fmt.Errorf("goto failed: %w", err)
		}
	}
	s.log.LogDebugf("navigated to %s", url)
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

// clickable is one candidate element collected from the live DOM.
type clickable struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Text  string `json:"text"`
	Href  string `json:"href"`
}

const collectClickablesJS = `() => {
	const sel = 'a, button, [role="button"], input[type="submit"], input[type="button"]';
	const els = Array.from(document.querySelectorAll(sel));
	const out = [];
	let i = 0;
	for (const el of els) {
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 && rect.height === 0) continue;
		const text = (el.innerText || el.value || el.getAttribute('aria-label') || '').trim().replace(/\s+/g, ' ').slice(0, 120);
		if (!text) continue;
		el.setAttribute('data-scraper-idx', String(i));
		out.push({index: i, tag: el.tagName.toLowerCase(), text: text, href: el.getAttribute('href') || ''});
		i++;
		if (i >= 150) break;
	}
	return out;
}`

const clickByIdxJS = `(idx) => {
	const el = document.querySelector('[data-scraper-idx="' + idx + '"]');
	if (!el) return false;
	el.scrollIntoView({block: 'center'});
	el.click();
	return true;
}`

// ClickElement resolves instruction against the page's clickable
// elements and clicks the best match once. A false return means nothing
// on the page satisfies the instruction.
func (s *Session) ClickElement(ctx context.Context, instruction string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	candidates, err := s.collectClickables()
	if err != nil {
		return false, err
	}
	if len(candidates) == 0 {
		return false, nil
	}

	idx := -1
	if s.llm != nil {
		if i, err := s.chooseWithModel(ctx, instruction, candidates); err == nil {
			idx = i
		} else {
			s.log.LogWarnf("element selection via model failed, using text match: %v", err)
			idx = chooseByText(instruction, candidates)
		}
	} else {
		idx = chooseByText(instruction, candidates)
	}
	if idx < 0 {
		return false, nil
	}

	res, err := s.page.Evaluate(clickByIdxJS, idx)
	if err != nil {
		return false, fmt.Errorf("click failed: %w", err)
	}
	clicked, _ := res.(bool)
	if clicked {
		s.log.LogDebugf("clicked element %d for instruction %q", idx, instruction)
	}
	return clicked, nil
}

func (s *Session) collectClickables() ([]clickable, error) {
	raw, err := s.page.Evaluate(collectClickablesJS)
	if err != nil {
		return nil, fmt.Errorf("collect clickables: %w", err)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var out []clickable
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// chooseWithModel asks the LLM which candidate satisfies the
// instruction. A nil index in the reply means no element matches.
func (s *Session) chooseWithModel(ctx context.Context, instruction string, candidates []clickable) (int, error) {
	var b strings.Builder
	for _, c := range candidates {
		if c.Href != "" {
			fmt.Fprintf(&b, "%d. %s %q (%s)\n", c.Index, c.Tag, c.Text, c.Href)
		} else {
			fmt.Fprintf(&b, "%d. %s %q\n", c.Index, c.Tag, c.Text)
		}
	}
	data, err := s.llm.GenerateJSON(ctx, s.prompts.ElementSelection, map[string]any{
		"instruction": instruction,
		"elements":    b.String(),
	})
	if err != nil {
		return -1, err
	}
	v, ok := data["index"]
	if !ok || v == nil {
		return -1, nil
	}
	f, ok := v.(float64)
	if !ok {
		return -1, fmt.Errorf("unexpected index type %T", v)
	}
	idx := int(f)
	if idx < 0 || idx >= len(candidates) {
		return -1, nil
	}
	return idx, nil
}

// backwardsWords are element texts a click instruction must never
// resolve to on its own.
var backwardsWords = []string{"previous", "prev", "back", "earlier"}

// chooseByText is the model-free fallback: match the quoted phrase from
// the instruction (or "next" for pagination wording) against element
// text, preferring exact matches.
func chooseByText(instruction string, candidates []clickable) int {
	phrase := quotedPhrase(instruction)
	if phrase == "" && strings.Contains(strings.ToLower(instruction), "next") {
		phrase = "next"
	}
	if phrase == "" {
		return -1
	}
	phrase = strings.ToLower(phrase)

	best := -1
	for _, c := range candidates {
		text := strings.ToLower(c.Text)
		skip := false
		for _, w := range backwardsWords {
			if strings.Contains(text, w) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if text == phrase {
			return c.Index
		}
		if best < 0 && strings.Contains(text, phrase) {
			best = c.Index
		}
	}
	return best
}

// quotedPhrase pulls the first single-quoted phrase out of an
// instruction like "... most closely matches 'Load More' ...".
func quotedPhrase(instruction string) string {
	start := strings.Index(instruction, "'")
	if start < 0 {
		return ""
	}
	rest := instruction[start+1:]
	end := strings.Index(rest, "'")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
