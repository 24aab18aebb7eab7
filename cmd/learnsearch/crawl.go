package main

import (
	"fmt"

	"github.com/sbomma1973/learnsearch"
	"github.com/sbomma1973/learnsearch/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	cc := deps.Config.Crawl
	scope, err := learnsearch.NewScope(cc.ScopePrefix)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}

	progress := func(event crawl.ProgressEvent) {
		if deps.Metrics != nil {
			deps.Metrics.ObserveProgress(event)
		}
		line := crawl.FormatEvent(event)
		switch {
		case line == "":
		case event.Type == crawl.ProgressFailed:
			fmt.Fprintln(deps.Stderr, line)
		default:
			fmt.Fprintln(deps.Stdout, line)
		}
	}

	result, err := deps.Crawler.Crawl(deps.Ctx, crawl.Options{
		StartURL: cc.StartURL,
		Scope:    scope,
		Budget:   cc.PageBudget,
	}, progress)
	if result != nil {
		fmt.Fprintf(deps.Stdout, "  Saved %d pages (%s), %d failed, %d visited\n",
			result.Saved, crawl.FormatBytes(result.Bytes), result.Failed+result.StoreFailed, result.Visited)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %s\n", learnsearch.ErrorMessage(err))
		return err
	}
	return nil
}
