// Package qdrant implements learnsearch.IndexClient against the Qdrant REST
// API. Dense and sparse vectors are computed by Qdrant's server-side
// inference from the record text; queries fuse both with reciprocal rank
// fusion.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbomma1973/learnsearch"
)

// DefaultTimeout bounds one API call.
const DefaultTimeout = 30 * time.Second

var (
	_ learnsearch.IndexClient       = (*Client)(nil)
	_ learnsearch.CollectionService = (*Client)(nil)
)

// Config describes the Qdrant deployment and collection layout.
type Config struct {
	Endpoint         string
	APIKey           string
	Collection       string
	DenseModel       string
	SparseModel      string
	DenseVectorName  string
	SparseVectorName string
	DenseVectorSize  int
}

// ConfigFrom extracts the index settings from the application config.
func ConfigFrom(c *learnsearch.Config) Config {
	return Config{
		Endpoint:         c.QdrantEndpoint,
		APIKey:           c.APIKey,
		Collection:       c.Collection,
		DenseModel:       c.DenseModel,
		SparseModel:      c.SparseModel,
		DenseVectorName:  c.DenseVectorName,
		SparseVectorName: c.SparseVectorName,
		DenseVectorSize:  c.DenseVectorSize,
	}
}

// Client talks to one Qdrant collection.
type Client struct {
	cfg    Config
	base   string
	client *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a Client. Returns ECONFIG if the endpoint, key or
// collection is missing.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, learnsearch.Errorf(learnsearch.ECONFIG, "qdrant endpoint and api key required")
	}
	if cfg.Collection == "" {
		return nil, learnsearch.Errorf(learnsearch.ECONFIG, "qdrant collection required")
	}
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, learnsearch.Errorf(learnsearch.ECONFIG, "invalid qdrant endpoint: %v", err)
	}

	c := &Client{
		cfg:    cfg,
		base:   strings.TrimSuffix(cfg.Endpoint, "/"),
		client: &http.Client{Timeout: DefaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "qdrant", "collection", cfg.Collection)
	return c, nil
}

// PointID returns the stable point id for a document url. Re-ingesting the
// same url overwrites its point.
func PointID(docURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(docURL)).String()
}

type inferenceDoc struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type point struct {
	ID      any                     `json:"id"`
	Vector  map[string]inferenceDoc `json:"vector"`
	Payload payload                 `json:"payload"`
}

// payload carries the document verbatim plus the indexed text.
type payload struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Document string `json:"document,omitempty"`
}

// Upsert writes records as points and waits until they are applied.
func (c *Client) Upsert(ctx context.Context, records []learnsearch.IndexedRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]point, 0, len(records))
	for _, rec := range records {
		p := point{
			ID: rec.ID,
			Vector: map[string]inferenceDoc{
				c.cfg.DenseVectorName:  {Text: rec.Text, Model: c.cfg.DenseModel},
				c.cfg.SparseVectorName: {Text: rec.Text, Model: c.cfg.SparseModel},
			},
			Payload: payload{Document: rec.Text},
		}
		if m := rec.Metadata; m != nil {
			p.ID = PointID(m.URL)
			p.Payload.URL, p.Payload.Title, p.Payload.Body = m.URL, m.Title, m.Body
		}
		points = append(points, p)
	}

	path := "/collections/" + url.PathEscape(c.cfg.Collection) + "/points?wait=true"
	if err := c.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil); err != nil {
		return err
	}
	c.logger.Debug("points upserted", "count", len(points))
	return nil
}

type prefetch struct {
	Query inferenceDoc `json:"query"`
	Using string       `json:"using"`
	Limit int          `json:"limit"`
}

type queryRequest struct {
	Prefetch    []prefetch        `json:"prefetch"`
	Query       map[string]string `json:"query"`
	Limit       int               `json:"limit"`
	WithPayload bool              `json:"with_payload"`
}

type queryResponse struct {
	Points []struct {
		ID      any      `json:"id"`
		Score   float64  `json:"score"`
		Payload *payload `json:"payload"`
	} `json:"points"`
}

// Query runs a hybrid dense and sparse search and returns up to limit hits,
// best first.
func (c *Client) Query(ctx context.Context, text string, limit int) ([]learnsearch.Hit, error) {
	if limit <= 0 {
		limit = learnsearch.DefaultTopK
	}

	req := queryRequest{
		Prefetch: []prefetch{
			{Query: inferenceDoc{Text: text, Model: c.cfg.DenseModel}, Using: c.cfg.DenseVectorName, Limit: limit},
			{Query: inferenceDoc{Text: text, Model: c.cfg.SparseModel}, Using: c.cfg.SparseVectorName, Limit: limit},
		},
		Query:       map[string]string{"fusion": "rrf"},
		Limit:       limit,
		WithPayload: true,
	}

	var resp queryResponse
	path := "/collections/" + url.PathEscape(c.cfg.Collection) + "/points/query"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}

	hits := make([]learnsearch.Hit, 0, len(resp.Points))
	for _, p := range resp.Points {
		if p.Payload == nil {
			continue
		}
		hits = append(hits, learnsearch.Hit{
			Metadata: &learnsearch.Document{URL: p.Payload.URL, Title: p.Payload.Title, Body: p.Payload.Body},
			Score:    p.Score,
		})
	}
	return hits, nil
}

// CreateCollection creates the collection with one named dense vector and
// one named sparse vector.
func (c *Client) CreateCollection(ctx context.Context) error {
	body := map[string]any{
		"vectors": map[string]any{
			c.cfg.DenseVectorName: map[string]any{
				"size":     c.cfg.DenseVectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			c.cfg.SparseVectorName: map[string]any{},
		},
	}
	if err := c.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(c.cfg.Collection), body, nil); err != nil {
		return err
	}
	c.logger.Info("collection created")
	return nil
}

// DeleteCollection drops the collection and every point in it.
func (c *Client) DeleteCollection(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/collections/"+url.PathEscape(c.cfg.Collection), nil, nil); err != nil {
		return err
	}
	c.logger.Info("collection deleted")
	return nil
}

// ListCollections returns the names of every collection on the server. It
// doubles as a connection test.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	var resp struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &resp); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.Collections))
	for _, col := range resp.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// envelope is the common Qdrant response wrapper.
type envelope struct {
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

// do sends one API call. A non-nil out receives the decoded "result" field.
// Every failure is reported as EINDEX.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return learnsearch.Errorf(learnsearch.EINDEX, "encode request: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return learnsearch.Errorf(learnsearch.EINDEX, "create request: %v", err)
	}
	req.Header.Set("api-key", c.cfg.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return learnsearch.Errorf(learnsearch.EINDEX, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return learnsearch.Errorf(learnsearch.EINDEX, "read response: %v", err)
	}

	var env envelope
	_ = json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return learnsearch.Errorf(learnsearch.EINDEX, "%s %s: HTTP %d: %s", method, path, resp.StatusCode, statusMessage(env.Status, data))
	}

	if out == nil {
		return nil
	}
	if len(env.Result) == 0 {
		return learnsearch.Errorf(learnsearch.EINDEX, "%s %s: response has no result", method, path)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return learnsearch.Errorf(learnsearch.EINDEX, "decode response: %v", err)
	}
	return nil
}

// statusMessage pulls the error text out of a Qdrant status field, falling
// back to the raw body.
func statusMessage(status json.RawMessage, raw []byte) string {
	var s struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(status, &s); err == nil && s.Error != "" {
		return s.Error
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return "empty response"
	}
	return msg
}
