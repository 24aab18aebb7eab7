package main

import (
	"fmt"

	"github.com/sbomma1973/learnsearch"
)

// Run executes the ingest command.
func (c *IngestCmd) Run(deps *Dependencies) error {
	result, err := deps.Ingester.Run(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}
	if result.Documents == 0 {
		fmt.Fprintln(deps.Stdout, "No documents found. Use 'learnsearch crawl' first.")
		return nil
	}
	fmt.Fprintf(deps.Stdout, "Ingested %d documents in %d batches\n", result.Documents, result.Batches)
	return nil
}
