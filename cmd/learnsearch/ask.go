package main

import (
	"fmt"
	"strings"

	"github.com/sbomma1973/learnsearch"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	answer, err := deps.Asker.Ask(deps.Ctx, strings.Join(c.Question, " "))
	if err != nil {
		if learnsearch.ErrorCode(err) == learnsearch.ENOTFOUND {
			fmt.Fprintln(deps.Stderr, "error: no indexed documents match the question. Use 'learnsearch ingest' first.")
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer)
	return nil
}
