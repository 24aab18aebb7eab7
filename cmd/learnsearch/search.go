package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sbomma1973/learnsearch"
)

// snippetLen bounds the body excerpt printed per result.
const snippetLen = 200

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	topK := c.TopK
	if topK <= 0 && deps.Config != nil {
		topK = deps.Config.Search.TopK
	}

	docs, err := deps.Searcher.Search(deps.Ctx, strings.Join(c.Query, " "), topK)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	if len(docs) == 0 {
		fmt.Fprintln(deps.Stdout, "No results found.")
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Found %d results.\n", len(docs))
	for i, doc := range docs {
		fmt.Fprintf(deps.Stdout, "\n%d. %s\n   %s\n   %s\n", i+1, doc.Title, doc.URL, snippet(doc.Body, snippetLen))
	}
	return nil
}

// snippet collapses whitespace in s and cuts it to at most n runes.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
