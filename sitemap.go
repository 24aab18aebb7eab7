package learnsearch

import "context"

// SitemapService discovers page urls from a site's sitemaps.
type SitemapService interface {
	// DiscoverURLs finds all urls listed in the sitemaps of the scope's site
	// and returns those inside the scope. robots.txt Sitemap directives are
	// checked first, then /sitemap.xml. Sitemap indexes are resolved recursively.
	DiscoverURLs(ctx context.Context, scope Scope) ([]string, error)
}
