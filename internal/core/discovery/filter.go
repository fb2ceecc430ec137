package discovery

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// jobKeywords score a URL's likelihood of leading to job listings.
// Each keyword matching on a word boundary adds one point.
var jobKeywords = []string{
	"job", "jobs", "career", "careers",
	"vacancy", "vacancies", "opportunity", "opportunities",
	"hiring", "recruit", "recruitment",
	"position", "positions", "opening", "openings",
	"join", "apply", "application", "talent",
	"team", "work", "working", "people", "peoples",
}

var skipExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
	".ppt", ".pptx", ".zip", ".rar", ".7z",
	".png", ".jpg", ".jpeg", ".gif", ".svg",
}

// CommonJobPaths are probed directly when search and homepage
// extraction come up empty.
var CommonJobPaths = []string{
	"/careers",
	"/jobs",
	"/careers/",
	"/jobs/",
	"/work-with-us",
	"/join-us",
	"/join-our-team",
	"/opportunities",
	"/vacancies",
	"/openings",
	"/hiring",
	"/employment",
	"/career",
	"/job",
	"/work",
	"/about/careers",
	"/about/jobs",
	"/company/careers",
	"/en/careers",
	"/en/jobs",
}

var keywordPatterns = compileKeywordPatterns()

func compileKeywordPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(jobKeywords))
	for _, kw := range jobKeywords {
		patterns[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return patterns
}

// FilterWebPages drops links to documents and images.
func FilterWebPages(urls []string) []string {
	filtered := make([]string, 0, len(urls))
	for _, u := range urls {
		path := strings.ToLower(u)
		if i := strings.Index(path, "?"); i >= 0 {
			path = path[:i]
		}
		skip := false
		for _, ext := range skipExtensions {
			if strings.HasSuffix(path, ext) {
				skip = true
				break
			}
		}
		if !skip {
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// FilterByDomain keeps URLs on the company's domain or its subdomains.
// A bare homepage link on the exact domain is dropped since it carries
// no path information worth traversing.
func FilterByDomain(urls []string, domain string) []string {
	domain = strings.ToLower(strings.TrimPrefix(domain, "www."))
	filtered := make([]string, 0, len(urls))

	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err != nil {
			continue
		}
		host := strings.ToLower(strings.TrimPrefix(parsed.Host, "www."))
		switch {
		case host == domain:
			if (parsed.Path != "" && parsed.Path != "/") || parsed.RawQuery != "" || parsed.Fragment != "" {
				filtered = append(filtered, u)
			}
		case strings.HasSuffix(host, "."+domain):
			filtered = append(filtered, u)
		}
	}
	return filtered
}

// FilterJobURLs keeps URLs containing job keywords, ordered by how many
// keywords each matches. URLs with no matches are dropped.
func FilterJobURLs(urls []string) []string {
	type scoredURL struct {
		url   string
		score int
	}
	scored := make([]scoredURL, 0, len(urls))
	for _, u := range urls {
		lower := strings.ToLower(u)
		score := 0
		for _, p := range keywordPatterns {
			if p.MatchString(lower) {
				score++
			}
		}
		if score > 0 {
			scored = append(scored, scoredURL{u, score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.url
	}
	return out
}
