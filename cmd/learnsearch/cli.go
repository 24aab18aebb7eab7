package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/sbomma1973/learnsearch"
	"github.com/sbomma1973/learnsearch/crawl"
	"github.com/sbomma1973/learnsearch/ingest"
	lsprom "github.com/sbomma1973/learnsearch/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	Config      *learnsearch.Config
	Logger      *slog.Logger
	Metrics     *lsprom.Metrics
	Crawler     *crawl.Crawler
	Ingester    *ingest.Ingester
	Searcher    learnsearch.Searcher
	Asker       learnsearch.Asker
	Collections learnsearch.CollectionService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config      string `short:"c" env:"LEARNSEARCH_CONFIG" help:"Path to config.yml (default: ./config.yml when present)"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address, e.g. :9090"`

	Crawl      CrawlCmd      `cmd:"" help:"Crawl a site section into the document store"`
	Ingest     IngestCmd     `cmd:"" help:"Upsert every stored document into the index"`
	Search     SearchCmd     `cmd:"" help:"Search indexed documents"`
	Ask        AskCmd        `cmd:"" help:"Answer a question from the top search results"`
	Collection CollectionCmd `cmd:"" help:"Manage the index collection"`
}

// CrawlCmd is the "crawl" subcommand. Flags override config values.
type CrawlCmd struct {
	StartURL string  `name:"start-url" help:"First url to fetch"`
	Scope    string  `help:"Scope prefix; only urls under it are followed (default: start url)"`
	Budget   int     `short:"n" help:"Maximum number of pages to save"`
	Delay    float64 `default:"-1" help:"Seconds between fetches"`
	Render   bool    `short:"r" help:"Render pages in a headless browser"`
	Retries  int     `default:"0" help:"Retries per page for transient fetch failures (429, 5xx, transport)"`
	Sitemap  bool    `short:"s" help:"Seed the frontier from the site's sitemap"`
}

// IngestCmd is the "ingest" subcommand.
type IngestCmd struct{}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query []string `arg:"" optional:"" help:"Search query"`
	TopK  int      `short:"k" name:"top-k" help:"Number of results (default: search.top_k)"`
	JSON  bool     `help:"Print results as JSON"`
	Local bool     `help:"Search stored documents with an in-process index instead of Qdrant"`
}

// AskCmd is the "ask" subcommand.
type AskCmd struct {
	Question []string `arg:"" optional:"" help:"Question to answer"`
	Local    bool     `help:"Retrieve from stored documents with an in-process index instead of Qdrant"`
}

// CollectionCmd groups the collection subcommands.
type CollectionCmd struct {
	Create CollectionCreateCmd `cmd:"" help:"Create the configured collection"`
	Delete CollectionDeleteCmd `cmd:"" help:"Delete the configured collection"`
	List   CollectionListCmd   `cmd:"" help:"List collections (connection test)"`
}

// CollectionCreateCmd is the "collection create" subcommand.
type CollectionCreateCmd struct{}

// CollectionDeleteCmd is the "collection delete" subcommand.
type CollectionDeleteCmd struct {
	Force bool `help:"Confirm deletion"`
}

// CollectionListCmd is the "collection list" subcommand.
type CollectionListCmd struct{}

func (c *CrawlCmd) apply(cfg *learnsearch.Config) {
	if c.StartURL != "" {
		cfg.Crawl.StartURL = c.StartURL
	}
	if c.Scope != "" {
		cfg.Crawl.ScopePrefix = c.Scope
	}
	if cfg.Crawl.ScopePrefix == "" {
		cfg.Crawl.ScopePrefix = cfg.Crawl.StartURL
	}
	if c.Budget > 0 {
		cfg.Crawl.PageBudget = c.Budget
	}
	if c.Delay >= 0 {
		cfg.Crawl.PolitenessDelaySeconds = c.Delay
	}
}
