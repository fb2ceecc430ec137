package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/standardforever/job-scrapper/internal/core/traverse"
	"github.com/standardforever/job-scrapper/internal/logger"
	"github.com/standardforever/job-scrapper/internal/platform/eino"
	"github.com/standardforever/job-scrapper/prompts"
)

// maxAttempts is how many times one analysis is retried before the
// failure surfaces to the traversal engine.
const maxAttempts = 2

// Service classifies listing pages and extracts structured postings
// through the LLM. It satisfies traverse.PageAnalyzer.
type Service struct {
	llm     *eino.Service
	prompts *prompts.SystemPrompts
	log     *logger.Logger
}

func New(llm *eino.Service) *Service {
	return &Service{
		llm:     llm,
		prompts: prompts.NewSystemPrompts(),
		log:     logger.New("Analyzer"),
	}
}

// AnalyzeListing classifies the page at pageURL from its extracted text.
func (s *Service) AnalyzeListing(ctx context.Context, pageURL, text string) (*traverse.PageAnalysis, error) {
	vars := map[string]any{
		"url":     pageURL,
		"content": eino.CleanTextForLLM(text, 0),
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := s.llm.GenerateJSON(ctx, s.prompts.PageClassification, vars)
		if err != nil {
			lastErr = err
			s.log.LogWarnf("listing analysis attempt %d/%d failed for %s: %v", attempt, maxAttempts, pageURL, err)
			continue
		}
		analysis, err := decodeAnalysis(data)
		if err != nil {
			lastErr = err
			s.log.LogWarnf("listing analysis attempt %d/%d returned malformed result for %s: %v", attempt, maxAttempts, pageURL, err)
			continue
		}
		return analysis, nil
	}
	return nil, fmt.Errorf("page analysis failed after %d attempts: %w", maxAttempts, lastErr)
}

// AnalyzeDetail extracts one posting's structured record. An empty map
// means the model filtered the posting out, which is not an error.
func (s *Service) AnalyzeDetail(ctx context.Context, mainDomain, text string) (map[string]interface{}, error) {
	vars := map[string]any{
		"main_domain": mainDomain,
		"content":     eino.CleanTextForLLM(text, 0),
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := s.llm.GenerateJSON(ctx, s.prompts.JobExtraction, vars)
		if err != nil {
			lastErr = err
			s.log.LogWarnf("detail extraction attempt %d/%d failed: %v", attempt, maxAttempts, err)
			continue
		}
		return data, nil
	}
	return nil, fmt.Errorf("job extraction failed after %d attempts: %w", maxAttempts, lastErr)
}

// decodeAnalysis maps the raw model JSON onto the typed analysis via a
// round-trip so unknown fields are dropped and types are coerced once.
func decodeAnalysis(data map[string]interface{}) (*traverse.PageAnalysis, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var analysis traverse.PageAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, err
	}
	if analysis.PageCategory == "" {
		return nil, fmt.Errorf("model response missing page_category")
	}
	return &analysis, nil
}
