package learnsearch

import (
	"net/url"
	"path"
	"strings"
)

// Scope restricts a crawl to urls on one host under one path prefix,
// e.g. "https://example.com/learn/".
type Scope struct {
	prefix *url.URL
	raw    string
}

// NewScope parses prefix into a Scope.
// Returns ECONFIG if prefix is not an absolute http(s) url.
func NewScope(prefix string) (Scope, error) {
	u, err := url.Parse(prefix)
	if err != nil {
		return Scope{}, Errorf(ECONFIG, "invalid scope prefix %q: %v", prefix, err)
	}
	if !isHTTPScheme(u.Scheme) || u.Host == "" {
		return Scope{}, Errorf(ECONFIG, "scope prefix %q must be an absolute http(s) url", prefix)
	}
	return Scope{prefix: u, raw: prefix}, nil
}

// String returns the prefix the scope was built from.
func (s Scope) String() string {
	return s.raw
}

// Origin returns the site root of the scope, e.g. "https://example.com/".
func (s Scope) Origin() string {
	if s.prefix == nil {
		return ""
	}
	return s.prefix.Scheme + "://" + s.prefix.Host + "/"
}

// InScope reports whether rawURL is an absolute http(s) url on the scope's
// host whose cleaned path begins with the scope's path prefix. Dot segments,
// including percent-encoded ones, are resolved before the prefix check.
// It never fails; unparsable urls are out of scope.
func (s Scope) InScope(rawURL string) bool {
	if s.prefix == nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !isHTTPScheme(u.Scheme) || u.Host == "" {
		return false
	}
	if !strings.EqualFold(u.Scheme, s.prefix.Scheme) || !strings.EqualFold(u.Host, s.prefix.Host) {
		return false
	}
	return strings.HasPrefix(cleanPath(u.Path), cleanPath(s.prefix.Path))
}

// cleanPath resolves dot segments in a decoded path, keeping a trailing
// slash so "/learn/" does not collapse to "/learn".
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// Resolve turns href into an absolute url. Relative hrefs are resolved
// against the site root; absolute hrefs are returned unchanged.
// Returns "" if href cannot be parsed.
func (s Scope) Resolve(href string) string {
	return ResolveAgainstOrigin(s.Origin(), href)
}

// ResolveAgainstOrigin resolves href against origin ("scheme://host/").
// Absolute hrefs are returned unchanged. Returns "" if either side cannot be parsed.
func ResolveAgainstOrigin(origin, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return href
	}
	base, err := url.Parse(origin)
	if err != nil || base.Host == "" {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func isHTTPScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}
