package gemini

import (
	"context"
	"strings"

	"github.com/sbomma1973/learnsearch"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ learnsearch.TokenCounter = (*TokenCounter)(nil)

// TokenCounter measures prompt size offline with the Gemini local tokenizer,
// so the token budget of an ask never costs an API call.
type TokenCounter struct {
	model string
	local *tokenizer.LocalTokenizer
}

// NewTokenCounter loads the local tokenizer for model, or DefaultModel when
// model is empty. Returns ECONFIG if the tokenizer does not support model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	local, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, learnsearch.Errorf(learnsearch.ECONFIG, "no local tokenizer for model %q: %v", model, err)
	}
	return &TokenCounter{model: model, local: local}, nil
}

// Model returns the model whose vocabulary is used.
func (c *TokenCounter) Model() string {
	return c.model
}

// CountTokens returns the number of tokens text occupies as a user turn.
// Blank text counts as zero.
func (c *TokenCounter) CountTokens(_ context.Context, text string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}
	result, err := c.local.CountTokens(contents, nil)
	if err != nil {
		return 0, learnsearch.Errorf(learnsearch.EINTERNAL, "counting tokens: %v", err)
	}
	return int(result.TotalTokens), nil
}
