// Package yaml loads learnsearch configuration from a YAML file with
// LEARNSEARCH_* environment overrides.
package yaml

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sbomma1973/learnsearch"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LEARNSEARCH_"

// LookupFunc returns the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads the config file at path, if path is non-empty, over the
// defaults from learnsearch.NewConfig and applies environment overrides.
func Load(path string) (*learnsearch.Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup LookupFunc) (*learnsearch.Config, error) {
	cfg := learnsearch.NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, learnsearch.Errorf(learnsearch.ECONFIG, "config file %q not found", path)
		} else if err != nil {
			return nil, learnsearch.Errorf(learnsearch.ECONFIG, "reading config file %q: %v", path, err)
		}
		if err := Decode(data, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode unmarshals YAML data onto cfg. Keys absent from data keep the
// values already in cfg. An empty document is not an error.
func Decode(data []byte, cfg *learnsearch.Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return learnsearch.Errorf(learnsearch.ECONFIG, "parsing config: %v", err)
	}
	return nil
}

// Encode renders cfg as YAML.
func Encode(cfg *learnsearch.Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, learnsearch.Errorf(learnsearch.EINTERNAL, "encoding config: %v", err)
	}
	if err := enc.Close(); err != nil {
		return nil, learnsearch.Errorf(learnsearch.EINTERNAL, "encoding config: %v", err)
	}
	return buf.Bytes(), nil
}

func applyEnvOverrides(cfg *learnsearch.Config, lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return learnsearch.Errorf(learnsearch.ECONFIG, "%s%s: %q is not an integer", EnvPrefix, name, v)
		}
		*dst = n
		return nil
	}
	float := func(name string, dst *float64) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return learnsearch.Errorf(learnsearch.ECONFIG, "%s%s: %q is not a number", EnvPrefix, name, v)
		}
		*dst = f
		return nil
	}

	str("QDRANT_ENDPOINT", &cfg.QdrantEndpoint)
	str("API_KEY", &cfg.APIKey)
	str("COLLECTION", &cfg.Collection)
	str("START_URL", &cfg.Crawl.StartURL)
	str("SCOPE_PREFIX", &cfg.Crawl.ScopePrefix)
	str("USER_AGENT", &cfg.Crawl.UserAgent)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("STORE_PATH", &cfg.Store.Path)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("GEMINI_MODEL", &cfg.Gemini.Model)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("GEMINI_API_KEY"); ok && v != "" {
		cfg.Gemini.APIKey = v
	}
	str("GEMINI_API_KEY", &cfg.Gemini.APIKey)

	for name, dst := range map[string]*int{
		"PAGE_BUDGET":          &cfg.Crawl.PageBudget,
		"RENDER_RECYCLE_PAGES": &cfg.Crawl.RenderRecyclePages,
		"BATCH_SIZE":           &cfg.Ingest.BatchSize,
		"TOP_K":                &cfg.Search.TopK,
		"REDIS_DB":             &cfg.Redis.DB,
	} {
		if err := integer(name, dst); err != nil {
			return err
		}
	}
	for name, dst := range map[string]*float64{
		"POLITENESS_DELAY_SECONDS": &cfg.Crawl.PolitenessDelaySeconds,
		"FETCH_TIMEOUT_SECONDS":    &cfg.Crawl.FetchTimeoutSeconds,
	} {
		if err := float(name, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup(EnvPrefix + "REDIS_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return learnsearch.Errorf(learnsearch.ECONFIG, "%sREDIS_TTL: %q is not a duration", EnvPrefix, v)
		}
		cfg.Redis.TTL = d
	}
	return nil
}
