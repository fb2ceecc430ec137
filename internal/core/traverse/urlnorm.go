package traverse

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for visited-set membership: lowercase,
// no www prefix, no trailing slash, query and fragment dropped. Inputs
// that do not parse come back trimmed and lowercased so lookups stay
// consistent.
func Normalize(rawURL string) string {
	raw := strings.TrimRight(strings.ToLower(strings.TrimSpace(rawURL)), "/")
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.TrimPrefix(u.Host, "www.")
	path := strings.TrimRight(u.Path, "/")
	return u.Scheme + "://" + host + path
}

// ToAbsolute resolves a possibly-relative URL against domain. Absolute
// URLs pass through untouched; anything else is treated as a path on
// the domain.
func ToAbsolute(rawURL, domain string) string {
	if rawURL == "" {
		return ""
	}
	if strings.HasPrefix(rawURL, "http") {
		return rawURL
	}
	if strings.HasPrefix(rawURL, "/") {
		return "https://" + domain + rawURL
	}
	return "https://" + domain + "/" + rawURL
}

// ExtractDomain returns the lowercased hostname of a URL, tolerating
// bare domains with no scheme.
func ExtractDomain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(rawURL))
	}
	return strings.ToLower(u.Hostname())
}

// ResolveFullPath prefixes a root-relative path with domain and leaves
// every other URL alone. Used when a job entry carries only a path.
func ResolveFullPath(rawURL, domain string) string {
	if strings.HasPrefix(rawURL, "/") {
		return strings.TrimRight(domain, "/") + rawURL
	}
	return rawURL
}
