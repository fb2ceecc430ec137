package markdown

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var (
	mainSelectors = []string{"main", "[role=\"main\"]", "#content", "#main"}

	// Elements whose class or id contain these never carry posting
	// content.
	boilerplateKeywords = []string{
		"cookie", "consent", "banner", "navbar", "nav-", "menu-", "header",
		"share", "search-", "signup", "signin", "login",
		"ad-", "advert", "promo", "modal", "popup", "dialog",
		"breadcrumbs", "breadcrumb", "sidebar",
	}

	excessNewlinesRe = regexp.MustCompile(`\n{3,}`)
	imageLineRe      = regexp.MustCompile(`!\[[^\]]*\]\([^\)]+\)`)
	linkLineRe       = regexp.MustCompile(`^!\[[^\]]*\]\((https?:\/\/[^\)]+)\)(\]\([^\)]+\))?$`)
	dateLineRe       = regexp.MustCompile(`^[A-Za-z]{3}\s\d{1,2},\s\d{4}\\?$`)
	anyDateRe        = regexp.MustCompile(`\b\d{4}/\d{2}/\d{2}\b|\b\d{2}/\d{2}/\d{4}\b|\b[A-Za-z]{3} \d{1,2}, \d{4}\b`)
	anyLinkRe        = regexp.MustCompile(`https?://[^\s)]+`)
	badEscapeRe      = regexp.MustCompile(`\\([^\\nrt"'bfvx0-7])`)
	controlCharsRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// ConvertHTMLToMarkdown converts a rendered page to markdown suitable
// for LLM analysis: it narrows to the main content area, strips chrome
// and boilerplate, then de-duplicates repeated links and dates.
func ConvertHTMLToMarkdown(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var content *goquery.Selection
	for _, sel := range mainSelectors {
		if doc.Find(sel).Length() > 0 {
			content = doc.Find(sel).First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	content.Find("script, style, noscript, nav, header, aside, form, iframe, svg, button, input").Each(func(_ int, s *goquery.Selection) { s.Remove() })
	content.Find("[role=\"navigation\"], [role=\"banner\"], [role=\"contentinfo\"], [aria-label*=\"cookie\" i], [aria-modal]").Each(func(_ int, s *goquery.Selection) { s.Remove() })

	content.Find("[class], [id]").Each(func(_ int, sel *goquery.Selection) {
		classVal, _ := sel.Attr("class")
		idVal, _ := sel.Attr("id")
		lower := strings.ToLower(classVal + " " + idVal)
		for _, kw := range boilerplateKeywords {
			if strings.Contains(lower, kw) {
				sel.Remove()
				break
			}
		}
	})

	body, err := content.Html()
	if err != nil {
		return ""
	}

	conv := md.NewConverter("", true, nil)
	out, err := conv.ConvertString(body)
	if err != nil {
		return ""
	}

	out = RemoveDuplicates(out)
	out = CleanMarkdownBoilerplate(out)
	out = excessNewlinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// RemoveDuplicates drops repeated link and date lines. Career sites
// often render the same posting link once per viewport breakpoint;
// without this the text sent to the model doubles or triples.
func RemoveDuplicates(markdown string) string {
	var cleaned bytes.Buffer
	seenLinks := make(map[string]bool)
	seenDates := make(map[string]bool)

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		normalized := anyDateRe.ReplaceAllString(anyLinkRe.ReplaceAllString(trimmed, "LINK"), "DATE")

		if linkLineRe.MatchString(trimmed) {
			if seenLinks[normalized] {
				continue
			}
			seenLinks[normalized] = true
		}
		if dateLineRe.MatchString(trimmed) {
			if seenDates[normalized] {
				continue
			}
			seenDates[normalized] = true
		}
		cleaned.WriteString(trimmed + "\n")
	}
	return cleaned.String()
}

// CleanMarkdownBoilerplate removes markdown-level noise after
// conversion: image-only lines, invalid escapes, characters that break
// JSON encoding downstream.
func CleanMarkdownBoilerplate(mdText string) string {
	lines := strings.Split(mdText, "\n")
	out := make([]string, 0, len(lines))

	for _, l := range lines {
		line := strings.TrimSpace(l)
		if line == "" {
			continue
		}
		if imageLineRe.MatchString(line) && len(strings.TrimSpace(imageLineRe.ReplaceAllString(line, ""))) == 0 {
			continue
		}
		out = append(out, sanitizeLine(line))
	}

	cleaned := strings.Join(out, "\n")
	cleaned = excessNewlinesRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func sanitizeLine(text string) string {
	text = badEscapeRe.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "\\\\", "\\")
	text = controlCharsRe.ReplaceAllString(text, "")

	// Invisible Unicode characters break JSON parsing of model output.
	for _, ch := range []string{
		"\u200b", "\u200c", "\u200d", "\u200e", "\u200f",
		"\u2028", "\u2029", "\ufeff", "\ufffd", "\uffff",
	} {
		text = strings.ReplaceAll(text, ch, "")
	}
	return text
}
