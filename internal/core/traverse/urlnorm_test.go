package traverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "https://example.com/jobs", "https://example.com/jobs"},
		{"trailing slash", "https://example.com/jobs/", "https://example.com/jobs"},
		{"www stripped", "https://www.example.com/jobs", "https://example.com/jobs"},
		{"uppercase", "HTTPS://Example.COM/Jobs", "https://example.com/jobs"},
		{"query dropped", "https://example.com/jobs?page=2", "https://example.com/jobs"},
		{"fragment dropped", "https://example.com/jobs#top", "https://example.com/jobs"},
		{"root path", "https://example.com/", "https://example.com"},
		{"whitespace", "  https://example.com/jobs  ", "https://example.com/jobs"},
		{"no scheme passes through", "example.com/jobs", "example.com/jobs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://WWW.Example.com/Careers/?utm=x#apply",
		"https://example.com/jobs/",
		"https://sub.example.co.uk/vacancies",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalizing twice must equal normalizing once for %q", in)
	}
}

func TestToAbsolute(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		domain string
		want   string
	}{
		{"empty", "", "example.com", ""},
		{"already absolute", "https://other.com/jobs", "example.com", "https://other.com/jobs"},
		{"root relative", "/careers", "example.com", "https://example.com/careers"},
		{"bare path", "careers", "example.com", "https://example.com/careers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToAbsolute(tt.url, tt.domain))
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/jobs", "www.example.com"},
		{"example.com", "example.com"},
		{"Example.COM/careers", "example.com"},
		{"https://sub.example.co.uk:8080/x", "sub.example.co.uk"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractDomain(tt.in), "input %q", tt.in)
	}
}

func TestResolveFullPath(t *testing.T) {
	assert.Equal(t, "example.com/jobs/1", ResolveFullPath("/jobs/1", "example.com"))
	assert.Equal(t, "example.com/jobs/1", ResolveFullPath("/jobs/1", "example.com/"))
	assert.Equal(t, "https://example.com/jobs/1", ResolveFullPath("https://example.com/jobs/1", "example.com"))
	assert.Equal(t, "jobs/1", ResolveFullPath("jobs/1", "example.com"))
}
