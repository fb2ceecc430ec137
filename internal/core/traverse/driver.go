package traverse

import "context"

// PageDriver abstracts the browser session a traversal runs in. One
// driver holds one page; the engine never manages windows or tabs.
type PageDriver interface {
	// Navigate loads url in the current page and waits for it to settle.
	Navigate(ctx context.Context, url string) error
	// CurrentURL reports the page's URL after any redirects.
	CurrentURL(ctx context.Context) (string, error)
	// ClickElement locates the element described by instruction and
	// clicks it once. It returns false when no matching element exists,
	// which is not an error.
	ClickElement(ctx context.Context, instruction string) (bool, error)
}

// ContentExtractor converts the driver's current page into the text
// representation the analyzer consumes.
type ContentExtractor interface {
	Extract(ctx context.Context, driver PageDriver) (string, error)
}

// PageAnalyzer is the classifier behind the traversal. AnalyzeListing
// reads a listings-side page; AnalyzeDetail extracts the structured
// record from a single posting's page.
type PageAnalyzer interface {
	AnalyzeListing(ctx context.Context, pageURL, text string) (*PageAnalysis, error)
	AnalyzeDetail(ctx context.Context, mainDomain, text string) (map[string]interface{}, error)
}
