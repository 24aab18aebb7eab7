package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sbomma1973/learnsearch"
	"github.com/sbomma1973/learnsearch/crawl"
	"github.com/sbomma1973/learnsearch/fs"
	"github.com/sbomma1973/learnsearch/gemini"
	"github.com/sbomma1973/learnsearch/goquery"
	lshttp "github.com/sbomma1973/learnsearch/http"
	"github.com/sbomma1973/learnsearch/ingest"
	"github.com/sbomma1973/learnsearch/memory"
	lsprom "github.com/sbomma1973/learnsearch/prometheus"
	"github.com/sbomma1973/learnsearch/qdrant"
	lsredis "github.com/sbomma1973/learnsearch/redis"
	"github.com/sbomma1973/learnsearch/rod"
	"github.com/sbomma1973/learnsearch/search"
	lsslog "github.com/sbomma1973/learnsearch/slog"
	"github.com/sbomma1973/learnsearch/sqlite"
	lsyaml "github.com/sbomma1973/learnsearch/yaml"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()
	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	_ = m.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// defaultConfigPath is read when present and no --config is given.
const defaultConfigPath = "config.yml"

// askTokenBudget caps the prompt built from search results.
const askTokenBudget = 200_000

// Main represents the program.
type Main struct {
	// Config, if set before Run, is used instead of loading a file.
	Config *learnsearch.Config

	// SQLite database, opened when store.driver is sqlite.
	DB *sqlite.DB

	// Services for end-to-end testing. When nil, Run builds them from config.
	Fetcher learnsearch.Fetcher
	Index   learnsearch.IndexClient

	closers []func() error
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close releases everything Run opened, in reverse order.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("learnsearch"),
		kong.Description("Crawl a site section, index it, and search it."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'learnsearch --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	cfg, err := m.loadConfig(cli.Config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}
	if cmd == "crawl" {
		cli.Crawl.apply(cfg)
	}
	deps.Config = cfg

	logger := lsslog.NewLogger(stderr, cfg.Log)
	deps.Logger = logger

	reg := prometheus.NewRegistry()
	deps.Metrics = lsprom.NewMetrics(reg)
	if cli.MetricsAddr != "" {
		m.serveMetrics(cli.MetricsAddr, reg, logger)
	}

	switch cmd {
	case "crawl":
		if err := cfg.ValidateCrawl(); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", learnsearch.ErrorMessage(err))
			return err
		}
		store, err := m.openStore(cfg, logger)
		if err != nil {
			return err
		}
		fetcher, err := m.openFetcher(cfg, cli.Crawl.Render, logger, stderr)
		if err != nil {
			return err
		}
		fetcher = lsprom.NewInstrumentedFetcher(lsslog.NewLoggingFetcher(fetcher, logger), deps.Metrics)
		politeness := crawl.NewPoliteness(cfg.Crawl.PolitenessDelay())
		deps.Crawler = &crawl.Crawler{
			Fetcher:    crawl.NewRetryingFetcher(fetcher, retryDelays(cli.Crawl.Retries), politeness, logger),
			Extractor:  goquery.NewExtractor(),
			Store:      store,
			Politeness: politeness,
			Logger:     logger,
		}
		if cli.Crawl.Sitemap {
			client := &http.Client{Timeout: cfg.Crawl.FetchTimeout()}
			deps.Crawler.Sitemaps = lsslog.NewLoggingSitemapService(lshttp.NewSitemapService(client, cfg.Crawl.UserAgent), logger)
		}

	case "ingest":
		store, err := m.openStore(cfg, logger)
		if err != nil {
			return err
		}
		index, err := m.openIndex(ctx, cfg, nil, deps, stderr)
		if err != nil {
			return err
		}
		deps.Ingester = &ingest.Ingester{
			Store:       store,
			Index:       index,
			Logger:      logger,
			BatchSize:   cfg.Ingest.BatchSize,
			Concurrency: cfg.Ingest.Concurrency,
		}

	case "search", "ask":
		var local learnsearch.DocumentStore
		if cli.Search.Local || cli.Ask.Local {
			if local, err = m.openStore(cfg, logger); err != nil {
				return err
			}
		}
		index, err := m.openIndex(ctx, cfg, local, deps, stderr)
		if err != nil {
			return err
		}
		deps.Searcher = search.NewService(index, logger)
		if cmd == "ask" {
			asker, err := m.openAsker(ctx, cfg, deps.Searcher, logger, stderr)
			if err != nil {
				return err
			}
			deps.Asker = asker
		}

	case "collection":
		if _, err := m.openIndex(ctx, cfg, nil, deps, stderr); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// retryDelays returns n backoff delays doubling from one second.
func retryDelays(n int) []time.Duration {
	delays := make([]time.Duration, 0, max(n, 0))
	for i := range n {
		delays = append(delays, time.Second<<i)
	}
	return delays
}

func (m *Main) loadConfig(path string) (*learnsearch.Config, error) {
	if m.Config != nil {
		return m.Config, nil
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	return lsyaml.Load(path)
}

func (m *Main) openStore(cfg *learnsearch.Config, logger *slog.Logger) (learnsearch.DocumentStore, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}
	var store learnsearch.DocumentStore
	switch cfg.Store.Driver {
	case learnsearch.StoreDriverSQLite:
		m.DB = sqlite.NewDB(cfg.Store.Path)
		if err := m.DB.Open(); err != nil {
			return nil, fmt.Errorf("failed to open database at %q: %w", cfg.Store.Path, err)
		}
		m.closers = append(m.closers, m.DB.Close)
		store = sqlite.NewDocumentStore(m.DB)
	default:
		s, err := fs.NewDocumentStore(cfg.Store.Path, logger)
		if err != nil {
			return nil, err
		}
		store = s
	}
	return lsslog.NewLoggingDocumentStore(store, logger), nil
}

// openFetcher builds the page fetcher. Both fetchers refuse redirects that
// leave the crawl scope.
func (m *Main) openFetcher(cfg *learnsearch.Config, render bool, logger *slog.Logger, stderr io.Writer) (learnsearch.Fetcher, error) {
	if m.Fetcher != nil {
		return m.Fetcher, nil
	}
	scope, err := learnsearch.NewScope(cfg.Crawl.ScopePrefix)
	if err != nil {
		return nil, err
	}
	if !render {
		return lshttp.NewFetcher(
			lshttp.WithTimeout(cfg.Crawl.FetchTimeout()),
			lshttp.WithUserAgent(cfg.Crawl.UserAgent),
			lshttp.WithScope(scope),
		), nil
	}
	fetcher, err := rod.NewFetcher(
		rod.WithTimeout(cfg.Crawl.FetchTimeout()),
		rod.WithUserAgent(cfg.Crawl.UserAgent),
		rod.WithScope(scope),
		rod.WithRecycleAfter(cfg.Crawl.RenderRecyclePages),
		rod.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --render")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	m.closers = append(m.closers, fetcher.Close)
	return fetcher, nil
}

// openIndex builds the decorated index client. With a local store the
// documents are loaded into an in-process index instead of Qdrant.
func (m *Main) openIndex(ctx context.Context, cfg *learnsearch.Config, local learnsearch.DocumentStore, deps *Dependencies, stderr io.Writer) (learnsearch.IndexClient, error) {
	var index learnsearch.IndexClient
	switch {
	case m.Index != nil:
		index = m.Index
	case local != nil:
		mem := memory.NewIndex()
		loader := &ingest.Ingester{Store: local, Index: mem, Logger: deps.Logger}
		if _, err := loader.Run(ctx); err != nil {
			return nil, err
		}
		index = mem
	default:
		if err := cfg.ValidateIndex(); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", learnsearch.ErrorMessage(err))
			fmt.Fprintln(stderr, "Hint: set qdrant_endpoint and api_key in config.yml or LEARNSEARCH_QDRANT_ENDPOINT and LEARNSEARCH_API_KEY")
			return nil, err
		}
		client, err := qdrant.NewClient(qdrant.ConfigFrom(cfg), qdrant.WithLogger(deps.Logger))
		if err != nil {
			return nil, err
		}
		deps.Collections = client
		index = client
	}

	index = lsslog.NewLoggingIndex(index, deps.Logger)
	index = lsprom.NewInstrumentedIndex(index, deps.Metrics)
	if cfg.Redis.Addr != "" && local == nil {
		rc := lsredis.NewClient(cfg.Redis)
		m.closers = append(m.closers, rc.Close)
		index = lsredis.NewCachingIndex(index, rc, cfg.Redis.TTL)
	}
	return index, nil
}

func (m *Main) openAsker(ctx context.Context, cfg *learnsearch.Config, searcher learnsearch.Searcher, logger *slog.Logger, stderr io.Writer) (learnsearch.Asker, error) {
	if cfg.Gemini.APIKey == "" {
		fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
		return nil, learnsearch.Errorf(learnsearch.ECONFIG, "GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	opts := []gemini.Option{
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithTopK(cfg.Search.TopK),
	}
	counter, err := gemini.NewTokenCounter(cfg.Gemini.Model)
	if err != nil {
		logger.Warn("token counting unavailable, prompt is not capped", "model", cfg.Gemini.Model, "err", err)
	} else {
		opts = append(opts, gemini.WithTokenBudget(counter, askTokenBudget))
	}
	return gemini.NewAsker(client, searcher, opts...), nil
}

func (m *Main) serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", lsprom.Handler(reg))
	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "err", err)
		}
	}()
	m.closers = append(m.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	})
}
