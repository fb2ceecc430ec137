package traverse

// Page categories reported by the analyzer.
const (
	CategoryJobsListed       = "jobs_listed"
	CategoryListingsPreview  = "job_listings_preview_page"
	CategoryNavigationNeeded = "navigation_required"
	CategorySingleJob        = "single_job_posting"
	CategoryNotJobRelated    = "not_job_related"
)

// Next actions reported by the analyzer.
const (
	ActionScrapeJobs      = "scrape_jobs"
	ActionNavigate        = "navigate"
	ActionScrapeSingleJob = "scrape_single_job"
	ActionStop            = "stop"
)

// JobEntry is a single discovered job posting. Details is populated by
// the enricher once the posting's own page has been analyzed.
type JobEntry struct {
	Title   string                 `json:"title"`
	URL     string                 `json:"url"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ScrapeResult is the outcome of one traversal run. Jobs and VisitedURLs
// hold whatever was collected before the run ended, even on failure.
type ScrapeResult struct {
	Jobs          []JobEntry `json:"jobs"`
	VisitedURLs   []string   `json:"visited_urls"`
	JobDetailURLs []string   `json:"job_detail_urls"`
	Success       bool       `json:"success"`
	Message       string     `json:"message,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// NextActionTarget describes the element or URL the analyzer wants
// followed when NextAction is "navigate".
type NextActionTarget struct {
	URL         string `json:"url"`
	LinkText    string `json:"link_text"`
	ElementType string `json:"element_type"`
}

// ListedJob is one posting the analyzer found on a listings page.
type ListedJob struct {
	Title  string `json:"title"`
	JobURL string `json:"job_url"`
	Path   string `json:"path"`
}

// PaginationInfo is the analyzer's read of the page's pagination state.
// IsPaginatedPage means numbered pages; HasMorePages without it means a
// load-more style control.
type PaginationInfo struct {
	IsPaginatedPage bool   `json:"is_paginated_page"`
	HasMorePages    bool   `json:"has_more_pages"`
	NextPageURL     string `json:"next_page_url"`
	TotalPages      *int   `json:"total_pages"`
	TotalJobs       *int   `json:"total_jobs"`
	CurrentPage     *int   `json:"current_page"`
}

// PageAnalysis is the analyzer's structured verdict on a listings page.
type PageAnalysis struct {
	PageCategory     string           `json:"page_category"`
	NextAction       string           `json:"next_action"`
	Confidence       float64          `json:"confidence"`
	Reasoning        string           `json:"reasoning"`
	DomainName       string           `json:"domain_name"`
	URL              string           `json:"url"`
	NextActionTarget NextActionTarget `json:"next_action_target"`
	JobsListedOnPage []ListedJob      `json:"jobs_listed_on_page"`
	Pagination       PaginationInfo   `json:"pagination"`
}
