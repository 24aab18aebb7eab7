// Package gemini answers questions about the indexed corpus with Google
// Gemini, grounding each answer in the top search results.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/sbomma1973/learnsearch"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

var _ learnsearch.Asker = (*Asker)(nil)

// Asker implements learnsearch.Asker using Google Gemini.
type Asker struct {
	client   *genai.Client
	searcher learnsearch.Searcher
	model    string
	topK     int

	counter   learnsearch.TokenCounter
	maxTokens int
}

// Option configures an Asker.
type Option func(*Asker)

// WithModel sets the Gemini model name.
func WithModel(model string) Option {
	return func(a *Asker) {
		if model != "" {
			a.model = model
		}
	}
}

// WithTopK sets how many search results are offered as context.
func WithTopK(k int) Option {
	return func(a *Asker) {
		a.topK = k
	}
}

// WithTokenBudget caps the prompt at limit tokens as measured by counter.
// Lower ranked documents are dropped first.
func WithTokenBudget(counter learnsearch.TokenCounter, limit int) Option {
	return func(a *Asker) {
		a.counter = counter
		a.maxTokens = limit
	}
}

// NewAsker creates a new Asker.
func NewAsker(client *genai.Client, searcher learnsearch.Searcher, opts ...Option) *Asker {
	a := &Asker{
		client:   client,
		searcher: searcher,
		model:    DefaultModel,
		topK:     learnsearch.DefaultTopK,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers a natural language question from the most relevant documents.
func (a *Asker) Ask(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", learnsearch.Errorf(learnsearch.EINVALID, "question required")
	}

	docs, err := a.searcher.Search(ctx, question, a.topK)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", learnsearch.Errorf(learnsearch.ENOTFOUND, "no documents found for %q", question)
	}

	prompt, err := a.buildPrompt(ctx, docs, question)
	if err != nil {
		return "", err
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", learnsearch.Errorf(learnsearch.EINTERNAL, "gemini returned nil result")
	}

	return result.Text(), nil
}

func (a *Asker) buildPrompt(ctx context.Context, docs []*learnsearch.Document, question string) (string, error) {
	if a.counter == nil || a.maxTokens <= 0 {
		return BuildUserPrompt(docs, question), nil
	}
	fitted, err := FitDocuments(ctx, a.counter, docs, question, a.maxTokens)
	if err != nil {
		return "", err
	}
	return BuildUserPrompt(fitted, question), nil
}

// FitDocuments returns the longest prefix of docs whose prompt stays within
// maxTokens. The best ranked document is always kept.
func FitDocuments(ctx context.Context, counter learnsearch.TokenCounter, docs []*learnsearch.Document, question string, maxTokens int) ([]*learnsearch.Document, error) {
	for n := len(docs); n > 1; n-- {
		count, err := counter.CountTokens(ctx, BuildUserPrompt(docs[:n], question))
		if err != nil {
			return nil, err
		}
		if count <= maxTokens {
			return docs[:n], nil
		}
	}
	return docs[:min(1, len(docs))], nil
}

// BuildConfig returns the GenerateContentConfig for Gemini API calls.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You are a helpful assistant answering questions using the articles provided. Answer based only on those articles and cite their urls. If the answer is not in the articles, say so.",
			}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt builds the user prompt containing the articles and question.
func BuildUserPrompt(docs []*learnsearch.Document, question string) string {
	var sb strings.Builder
	sb.WriteString("<articles>\n")
	for i, doc := range docs {
		sb.WriteString("<article>\n")
		fmt.Fprintf(&sb, "<rank>%d</rank>\n", i+1)
		fmt.Fprintf(&sb, "<title>%s</title>\n", doc.Title)
		fmt.Fprintf(&sb, "<url>%s</url>\n", doc.URL)
		fmt.Fprintf(&sb, "<body>%s</body>\n", doc.Body)
		sb.WriteString("</article>\n")
	}
	sb.WriteString("</articles>\n\n")
	fmt.Fprintf(&sb, "Question: %s", question)
	return sb.String()
}
