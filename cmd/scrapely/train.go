package main

import (
	"fmt"

	"github.com/fwojciec/scrapely"
)

// Run executes the train command.
func (c *TrainCmd) Run(deps *Dependencies) error {
	specs, err := parseFields(c.Fields, c.Required, c.Markup, c.Weight)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}

	s := deps.newScraper()
	var tmpl *scrapely.Template
	if c.File != "" {
		page, err := deps.readPage(c.URL, c.File)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		tmpl, err = s.TrainPage(page, specs)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
			return err
		}
	} else {
		tmpl, err = s.Train(deps.Ctx, c.URL, specs)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
	}

	entry := &scrapely.TemplateEntry{Set: c.Set, Record: tmpl.Record()}
	if err := deps.Templates.CreateTemplate(deps.Ctx, entry); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Trained template %s in set %q (position %d)\n", entry.ID, c.Set, entry.Position)
	for _, a := range tmpl.Annotations {
		fmt.Fprintf(deps.Stdout, "  %s: tokens %d-%d  %q\n", a.Field, a.Start, a.End, tmpl.Page.Text(a.Start, a.End))
	}
	return nil
}
