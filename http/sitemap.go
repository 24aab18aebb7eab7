package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"github.com/sbomma1973/learnsearch"
)

var _ learnsearch.SitemapService = (*SitemapService)(nil)

// SitemapService discovers page urls from a site's sitemaps. Sitemaps are
// located through robots.txt, falling back to /sitemap.xml.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a SitemapService. If client is nil,
// http.DefaultClient is used.
func NewSitemapService(client *http.Client, userAgent string) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = learnsearch.DefaultUserAgent
	}
	return &SitemapService{client: client, userAgent: userAgent}
}

// DiscoverURLs returns the distinct in-scope urls listed in the sitemaps of
// the scope's origin, in sitemap order. Returns an empty slice if the site
// has no sitemap.
func (s *SitemapService) DiscoverURLs(ctx context.Context, scope learnsearch.Scope) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sitemaps, err := s.locateSitemaps(ctx, strings.TrimSuffix(scope.Origin(), "/"))
	if err != nil {
		return nil, err
	}

	urls := []string{}
	seenURL := make(map[string]bool)
	seenSitemap := make(map[string]bool)
	for _, sm := range sitemaps {
		locs, err := s.walk(ctx, sm, seenSitemap)
		if err != nil {
			return nil, err
		}
		for _, u := range locs {
			if seenURL[u] || !scope.InScope(u) {
				continue
			}
			seenURL[u] = true
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// locateSitemaps reads Sitemap: directives from robots.txt. Without any, it
// probes /sitemap.xml.
func (s *SitemapService) locateSitemaps(ctx context.Context, origin string) ([]string, error) {
	if found, err := s.robotsSitemaps(ctx, origin+"/robots.txt"); err == nil && len(found) > 0 {
		return found, nil
	}

	fallback := origin + "/sitemap.xml"
	ok, err := s.exists(ctx, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return []string{fallback}, nil
}

func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var found []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			found = append(found, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return found, nil
}

// walk parses one sitemap, following <sitemapindex> entries recursively.
func (s *SitemapService) walk(ctx context.Context, sitemapURL string, seen map[string]bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if seen[sitemapURL] {
		return nil, nil
	}
	seen[sitemapURL] = true

	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap %s", sitemapURL)
	}

	if root.Tag != "sitemapindex" {
		return locs(root, "url"), nil
	}

	var urls []string
	for _, child := range locs(root, "sitemap") {
		found, err := s.walk(ctx, child, seen)
		if err != nil {
			return nil, err
		}
		urls = append(urls, found...)
	}
	return urls, nil
}

// locs returns the trimmed <loc> text of every child element named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &learnsearch.FetchError{URL: target, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func (s *SitemapService) exists(ctx context.Context, target string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}
