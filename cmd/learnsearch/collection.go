package main

import (
	"fmt"

	"github.com/sbomma1973/learnsearch"
)

// Run executes the collection create command.
func (c *CollectionCreateCmd) Run(deps *Dependencies) error {
	if err := deps.Collections.CreateCollection(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Created collection %q\n", deps.Config.Collection)
	return nil
}

// Run executes the collection delete command.
func (c *CollectionDeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return learnsearch.Errorf(learnsearch.EINVALID, "use --force to confirm deletion")
	}
	if err := deps.Collections.DeleteCollection(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Deleted collection %q\n", deps.Config.Collection)
	return nil
}

// Run executes the collection list command.
func (c *CollectionListCmd) Run(deps *Dependencies) error {
	names, err := deps.Collections.ListCollections(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", learnsearch.ErrorMessage(err))
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(deps.Stdout, "No collections found. Use 'learnsearch collection create' to create one.")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(deps.Stdout, name)
	}
	return nil
}
