package analyzer

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardforever/job-scrapper/internal/platform/eino"
)

// fakeChatModel replays scripted replies so analyses run without a live
// provider.
type fakeChatModel struct {
	replies []string
	errs    []error
	calls   int
}

func (m *fakeChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.replies) {
		return nil, errors.New("no scripted reply")
	}
	return &schema.Message{Role: schema.Assistant, Content: m.replies[i]}, nil
}

func (m *fakeChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func newTestService(m *fakeChatModel) *Service {
	return New(eino.NewServiceWithModel(eino.Config{Provider: "gemini", Model: "test"}, m))
}

const listingReply = `{
  "page_category": "jobs_listed",
  "next_action": "scrape_jobs",
  "confidence": 0.93,
  "reasoning": "several postings with apply links",
  "jobs_listed_on_page": [
    {"title": "Engineer", "job_url": "https://example.com/jobs/1", "path": "/jobs/1"},
    {"title": "Designer", "job_url": null, "path": null}
  ],
  "next_action_target": {"url": null, "link_text": null, "element_type": null},
  "pagination": {"is_paginated_page": true, "has_more_pages": true, "next_page_url": null, "total_pages": 4, "total_jobs": null, "current_page": 1}
}`

func TestAnalyzeListingDecodesModelReply(t *testing.T) {
	svc := newTestService(&fakeChatModel{replies: []string{listingReply}})

	analysis, err := svc.AnalyzeListing(context.Background(), "https://example.com/careers", "page text")

	require.NoError(t, err)
	assert.Equal(t, "jobs_listed", analysis.PageCategory)
	assert.Equal(t, "scrape_jobs", analysis.NextAction)
	require.Len(t, analysis.JobsListedOnPage, 2)
	assert.Equal(t, "https://example.com/jobs/1", analysis.JobsListedOnPage[0].JobURL)
	assert.Empty(t, analysis.JobsListedOnPage[1].JobURL)
	assert.True(t, analysis.Pagination.IsPaginatedPage)
	require.NotNil(t, analysis.Pagination.TotalPages)
	assert.Equal(t, 4, *analysis.Pagination.TotalPages)
}

func TestAnalyzeListingStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + listingReply + "\n```"
	svc := newTestService(&fakeChatModel{replies: []string{fenced}})

	analysis, err := svc.AnalyzeListing(context.Background(), "https://example.com", "text")

	require.NoError(t, err)
	assert.Equal(t, "jobs_listed", analysis.PageCategory)
}

func TestAnalyzeListingRetriesOnce(t *testing.T) {
	m := &fakeChatModel{
		errs:    []error{errors.New("transient")},
		replies: []string{"", listingReply},
	}
	svc := newTestService(m)

	analysis, err := svc.AnalyzeListing(context.Background(), "https://example.com", "text")

	require.NoError(t, err)
	assert.Equal(t, 2, m.calls)
	assert.Equal(t, "jobs_listed", analysis.PageCategory)
}

func TestAnalyzeListingFailsAfterRetries(t *testing.T) {
	m := &fakeChatModel{errs: []error{errors.New("down"), errors.New("still down")}, replies: []string{"", ""}}
	svc := newTestService(m)

	_, err := svc.AnalyzeListing(context.Background(), "https://example.com", "text")

	require.Error(t, err)
	assert.Equal(t, 2, m.calls)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestAnalyzeListingRejectsMissingCategory(t *testing.T) {
	svc := newTestService(&fakeChatModel{replies: []string{`{"next_action": "stop"}`, `{"foo": 1}`}})

	_, err := svc.AnalyzeListing(context.Background(), "https://example.com", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_category")
}

func TestAnalyzeDetailReturnsRawMap(t *testing.T) {
	svc := newTestService(&fakeChatModel{replies: []string{`{"title": "Engineer", "company_name": "Acme"}`}})

	details, err := svc.AnalyzeDetail(context.Background(), "example.com", "posting text")

	require.NoError(t, err)
	assert.Equal(t, "Engineer", details["title"])
	assert.Equal(t, "Acme", details["company_name"])
}

func TestAnalyzeDetailEmptyObjectMeansFiltered(t *testing.T) {
	svc := newTestService(&fakeChatModel{replies: []string{`{}`}})

	details, err := svc.AnalyzeDetail(context.Background(), "example.com", "non-uk posting")

	require.NoError(t, err)
	assert.Empty(t, details)
}
