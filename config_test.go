package learnsearch_test

import (
	"testing"
	"time"

	"github.com/sbomma1973/learnsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *learnsearch.Config {
	cfg := learnsearch.NewConfig()
	cfg.QdrantEndpoint = "https://qdrant.example.com:6333"
	cfg.APIKey = "secret"
	cfg.Crawl.StartURL = "https://example.com/learn/"
	cfg.Crawl.ScopePrefix = "https://example.com/learn/"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts complete config", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*learnsearch.Config)
		message string
	}{
		{"missing start url", func(c *learnsearch.Config) { c.Crawl.StartURL = "" }, "crawl.start_url required"},
		{"missing scope", func(c *learnsearch.Config) { c.Crawl.ScopePrefix = "" }, "crawl.scope_prefix required"},
		{"start url out of scope", func(c *learnsearch.Config) { c.Crawl.StartURL = "https://example.com/other/" }, "outside"},
		{"zero budget", func(c *learnsearch.Config) { c.Crawl.PageBudget = 0 }, "page_budget"},
		{"negative delay", func(c *learnsearch.Config) { c.Crawl.PolitenessDelaySeconds = -1 }, "politeness_delay_seconds"},
		{"zero timeout", func(c *learnsearch.Config) { c.Crawl.FetchTimeoutSeconds = 0 }, "fetch_timeout_seconds"},
		{"unknown store driver", func(c *learnsearch.Config) { c.Store.Driver = "s3" }, "store.driver"},
		{"missing endpoint", func(c *learnsearch.Config) { c.QdrantEndpoint = "" }, "qdrant_endpoint and api_key required"},
		{"missing api key", func(c *learnsearch.Config) { c.APIKey = "" }, "qdrant_endpoint and api_key required"},
		{"zero top k", func(c *learnsearch.Config) { c.Search.TopK = 0 }, "search.top_k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, learnsearch.ECONFIG, learnsearch.ErrorCode(err))
			assert.Contains(t, learnsearch.ErrorMessage(err), tt.message)
		})
	}
}

func TestCrawlConfig_Durations(t *testing.T) {
	t.Parallel()

	cc := learnsearch.CrawlConfig{PolitenessDelaySeconds: 1.5, FetchTimeoutSeconds: 10}

	assert.Equal(t, 1500*time.Millisecond, cc.PolitenessDelay())
	assert.Equal(t, 10*time.Second, cc.FetchTimeout())
}
