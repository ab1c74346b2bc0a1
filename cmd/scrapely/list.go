package main

import (
	"fmt"

	"github.com/fwojciec/scrapely"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	var filter scrapely.TemplateFilter
	if c.Set != "" {
		filter.Set = &c.Set
	}
	entries, err := deps.Templates.FindTemplates(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(deps.Stdout, "No templates found. Use 'scrapely train' to create one.")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(deps.Stdout, "%s  %s  #%d  %s  (%d annotations)\n",
			e.ID, e.Set, e.Position, e.Record.URL, len(e.Record.Annotations))
	}
	return nil
}
