package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterWebPages(t *testing.T) {
	in := []string{
		"https://acme.co.uk/careers",
		"https://acme.co.uk/files/handbook.PDF",
		"https://acme.co.uk/jobs/apply.docx",
		"https://acme.co.uk/logo.png?v=2",
		"https://acme.co.uk/jobs?page=2",
	}
	got := FilterWebPages(in)
	assert.Equal(t, []string{
		"https://acme.co.uk/careers",
		"https://acme.co.uk/jobs?page=2",
	}, got)
}

func TestFilterByDomain(t *testing.T) {
	in := []string{
		"https://acme.co.uk/careers",
		"https://www.acme.co.uk/jobs",
		"https://jobs.acme.co.uk/",
		"https://acme.co.uk/",
		"https://acme.co.uk",
		"https://other.co.uk/acme",
		"https://acme.co.uk/?ref=nav",
	}
	got := FilterByDomain(in, "www.acme.co.uk")
	assert.Equal(t, []string{
		"https://acme.co.uk/careers",
		"https://www.acme.co.uk/jobs",
		"https://jobs.acme.co.uk/",
		"https://acme.co.uk/?ref=nav",
	}, got)
}

func TestFilterJobURLsScoring(t *testing.T) {
	in := []string{
		"https://acme.co.uk/about",
		"https://acme.co.uk/careers/jobs",
		"https://acme.co.uk/jobs",
		"https://acme.co.uk/news",
	}
	got := FilterJobURLs(in)
	assert.Equal(t, []string{
		"https://acme.co.uk/careers/jobs",
		"https://acme.co.uk/jobs",
	}, got)
}

func TestFilterJobURLsWordBoundary(t *testing.T) {
	// "jobs" inside another word does not count.
	got := FilterJobURLs([]string{"https://acme.co.uk/jobsworth-blog"})
	assert.Empty(t, got)

	got = FilterJobURLs([]string{"https://acme.co.uk/jobs-board"})
	assert.Len(t, got, 1)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "https://acme.co.uk", baseURL("acme.co.uk"))
	assert.Equal(t, "https://acme.co.uk", baseURL("https://acme.co.uk/"))
	assert.Equal(t, "https://acme.co.uk", baseURL("http://acme.co.uk"))
}
