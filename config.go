package learnsearch

import (
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultUserAgent        = "Mozilla/5.0"
	DefaultPageBudget       = 200
	DefaultPolitenessDelay  = 1.0
	DefaultFetchTimeout     = 10.0
	DefaultRenderRecycle    = 75
	DefaultStoreDir         = "learn_articles"
	DefaultCollection       = "learn_articles"
	DefaultDenseModel       = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultSparseModel      = "prithivida/Splade_PP_en_v1"
	DefaultDenseVectorName  = "fast-all-minilm-l6-v2"
	DefaultSparseVectorName = "fast-sparse-splade_pp_en_v1"
	DefaultDenseVectorSize  = 384
	DefaultBatchSize        = 64
	DefaultCacheTTL         = 5 * time.Minute
)

// Store drivers.
const (
	StoreDriverFS     = "fs"
	StoreDriverSQLite = "sqlite"
)

// Config holds every setting read once at startup.
// The top-level Qdrant keys are flat to match existing config.yml files.
type Config struct {
	QdrantEndpoint   string `yaml:"qdrant_endpoint"`
	APIKey           string `yaml:"api_key"`
	Collection       string `yaml:"collection"`
	DenseModel       string `yaml:"dense_model"`
	SparseModel      string `yaml:"sparse_model"`
	DenseVectorName  string `yaml:"dense_vector_name"`
	SparseVectorName string `yaml:"sparse_vector_name"`
	DenseVectorSize  int    `yaml:"dense_vector_size"`

	Crawl  CrawlConfig  `yaml:"crawl"`
	Store  StoreConfig  `yaml:"store"`
	Ingest IngestConfig `yaml:"ingest"`
	Search SearchConfig `yaml:"search"`
	Redis  RedisConfig  `yaml:"redis"`
	Gemini GeminiConfig `yaml:"gemini"`
	Log    LogConfig    `yaml:"log"`
}

// CrawlConfig controls one crawl run.
type CrawlConfig struct {
	StartURL               string  `yaml:"start_url"`
	ScopePrefix            string  `yaml:"scope_prefix"`
	PageBudget             int     `yaml:"page_budget"`
	PolitenessDelaySeconds float64 `yaml:"politeness_delay_seconds"`
	FetchTimeoutSeconds    float64 `yaml:"fetch_timeout_seconds"`
	UserAgent              string  `yaml:"user_agent"`

	// RenderRecyclePages is how many pages a --render crawl loads in one
	// browser process before relaunching it.
	RenderRecyclePages int `yaml:"render_recycle_pages"`
}

// PolitenessDelay returns the delay between fetches as a duration.
func (c CrawlConfig) PolitenessDelay() time.Duration {
	return time.Duration(c.PolitenessDelaySeconds * float64(time.Second))
}

// FetchTimeout returns the per-fetch timeout as a duration.
func (c CrawlConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds * float64(time.Second))
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// IngestConfig controls batching of index upserts.
type IngestConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Concurrency int `yaml:"concurrency"`
}

// SearchConfig controls the query service.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// RedisConfig enables the query result cache when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// GeminiConfig configures question answering.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// LogConfig controls structured logging level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Collection:       DefaultCollection,
		DenseModel:       DefaultDenseModel,
		SparseModel:      DefaultSparseModel,
		DenseVectorName:  DefaultDenseVectorName,
		SparseVectorName: DefaultSparseVectorName,
		DenseVectorSize:  DefaultDenseVectorSize,
		Crawl: CrawlConfig{
			PageBudget:             DefaultPageBudget,
			PolitenessDelaySeconds: DefaultPolitenessDelay,
			FetchTimeoutSeconds:    DefaultFetchTimeout,
			UserAgent:              DefaultUserAgent,
			RenderRecyclePages:     DefaultRenderRecycle,
		},
		Store: StoreConfig{
			Driver: StoreDriverFS,
			Path:   DefaultStoreDir,
		},
		Ingest: IngestConfig{
			BatchSize:   DefaultBatchSize,
			Concurrency: 4,
		},
		Search: SearchConfig{TopK: DefaultTopK},
		Redis:  RedisConfig{TTL: DefaultCacheTTL},
		Gemini: GeminiConfig{Model: "gemini-2.5-flash"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if err := c.ValidateCrawl(); err != nil {
		return err
	}
	if err := c.ValidateStore(); err != nil {
		return err
	}
	return c.ValidateIndex()
}

// ValidateCrawl checks the settings needed to run a crawl.
func (c *Config) ValidateCrawl() error {
	cc := c.Crawl
	if cc.StartURL == "" {
		return Errorf(ECONFIG, "crawl.start_url required")
	}
	if cc.ScopePrefix == "" {
		return Errorf(ECONFIG, "crawl.scope_prefix required")
	}
	scope, err := NewScope(cc.ScopePrefix)
	if err != nil {
		return err
	}
	if !scope.InScope(cc.StartURL) {
		return Errorf(ECONFIG, "crawl.start_url %q is outside crawl.scope_prefix %q", cc.StartURL, cc.ScopePrefix)
	}
	if cc.PageBudget <= 0 {
		return Errorf(ECONFIG, "crawl.page_budget must be > 0")
	}
	if cc.PolitenessDelaySeconds < 0 {
		return Errorf(ECONFIG, "crawl.politeness_delay_seconds must be >= 0")
	}
	if cc.FetchTimeoutSeconds <= 0 {
		return Errorf(ECONFIG, "crawl.fetch_timeout_seconds must be > 0")
	}
	if strings.TrimSpace(cc.UserAgent) == "" {
		return Errorf(ECONFIG, "crawl.user_agent required")
	}
	return nil
}

// ValidateStore checks the document store settings.
func (c *Config) ValidateStore() error {
	switch c.Store.Driver {
	case StoreDriverFS, StoreDriverSQLite:
	default:
		return Errorf(ECONFIG, "store.driver must be %q or %q, got %q", StoreDriverFS, StoreDriverSQLite, c.Store.Driver)
	}
	if c.Store.Path == "" {
		return Errorf(ECONFIG, "store.path required")
	}
	return nil
}

// ValidateIndex checks the settings needed to talk to the index.
func (c *Config) ValidateIndex() error {
	if c.QdrantEndpoint == "" || c.APIKey == "" {
		return Errorf(ECONFIG, "qdrant_endpoint and api_key required")
	}
	if c.Collection == "" {
		return Errorf(ECONFIG, "collection required")
	}
	if c.DenseModel == "" || c.SparseModel == "" {
		return Errorf(ECONFIG, "dense_model and sparse_model required")
	}
	if c.DenseVectorName == "" || c.SparseVectorName == "" {
		return Errorf(ECONFIG, "dense_vector_name and sparse_vector_name required")
	}
	if c.DenseVectorSize <= 0 {
		return Errorf(ECONFIG, "dense_vector_size must be > 0")
	}
	if c.Ingest.BatchSize <= 0 {
		return Errorf(ECONFIG, "ingest.batch_size must be > 0")
	}
	if c.Search.TopK <= 0 {
		return Errorf(ECONFIG, "search.top_k must be > 0")
	}
	return nil
}
