package main

import (
	"fmt"

	"github.com/fwojciec/scrapely"
)

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	entries, err := deps.Templates.FindTemplates(deps.Ctx, scrapely.TemplateFilter{Set: &c.Set})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(deps.Stderr, "error: template set %q not found. Use 'scrapely list' to see available sets.\n", c.Set)
		return scrapely.Errorf(scrapely.ENOTFOUND, "template set %q not found", c.Set)
	}

	records := make([]*scrapely.TemplateRecord, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}
	if err := deps.Archive(c.Path).WriteTemplates(deps.Ctx, records); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d templates from set %q to %s\n", len(records), c.Set, c.Path)
	return nil
}

// Run executes the import command. Every record is rebuilt before anything
// is stored, so a file with one bad template imports nothing.
func (c *ImportCmd) Run(deps *Dependencies) error {
	records, err := deps.Archive(c.Path).ReadTemplates(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}
	if err := deps.newScraper().LoadRecords(records); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	for _, rec := range records {
		entry := &scrapely.TemplateEntry{Set: c.Set, Record: rec}
		if err := deps.Templates.CreateTemplate(deps.Ctx, entry); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Imported %d templates into set %q\n", len(records), c.Set)
	return nil
}
