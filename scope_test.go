package learnsearch_test

import (
	"testing"

	"github.com/sbomma1973/learnsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_InScope(t *testing.T) {
	t.Parallel()

	scope, err := learnsearch.NewScope("https://example.com/learn/")
	require.NoError(t, err)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"prefix itself", "https://example.com/learn/", true},
		{"nested page", "https://example.com/learn/cleaning/tips", true},
		{"query string", "https://example.com/learn/a?page=2", true},
		{"host is case insensitive", "https://EXAMPLE.com/learn/a", true},
		{"sibling section", "https://example.com/other/", false},
		{"prefix without trailing slash", "https://example.com/learn", false},
		{"look-alike path", "https://example.com/learning/a", false},
		{"different host", "https://evil.com/learn/a", false},
		{"host suffix attack", "https://example.com.evil.com/learn/a", false},
		{"different scheme", "http://example.com/learn/a", false},
		{"relative url", "/learn/a", false},
		{"mailto", "mailto:someone@example.com", false},
		{"unparsable", "https://example.com/learn/%zz", false},
		{"empty", "", false},
		{"dot-dot escapes prefix", "https://example.com/learn/../other/", false},
		{"encoded dot-dot escapes prefix", "https://example.com/learn/%2e%2e/other/", false},
		{"upper-case encoded dot-dot", "https://example.com/learn/%2E%2E/other/", false},
		{"dot-dot back to prefix root", "https://example.com/learn/..", false},
		{"dot-dot staying inside", "https://example.com/learn/a/../b", true},
		{"single dot segment", "https://example.com/learn/./a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scope.InScope(tt.url))
		})
	}
}

func TestScope_ZeroValueRejectsEverything(t *testing.T) {
	t.Parallel()

	var scope learnsearch.Scope
	assert.False(t, scope.InScope("https://example.com/learn/"))
}

func TestNewScope_RejectsRelativePrefix(t *testing.T) {
	t.Parallel()

	_, err := learnsearch.NewScope("/learn/")

	require.Error(t, err)
	assert.Equal(t, learnsearch.ECONFIG, learnsearch.ErrorCode(err))
}

func TestScope_Resolve(t *testing.T) {
	t.Parallel()

	scope, err := learnsearch.NewScope("https://example.com/learn/")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/", scope.Origin())
	assert.Equal(t, "https://example.com/learn/a", scope.Resolve("/learn/a"))
	assert.Equal(t, "https://example.com/learn/a", scope.Resolve("learn/a"))
	assert.Equal(t, "https://other.com/x", scope.Resolve("https://other.com/x"))
	assert.Equal(t, "https://cdn.example.com/x", scope.Resolve("//cdn.example.com/x"))
}
