package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/scrapely"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	s, err := deps.loadSet(c.Set)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", scrapely.ErrorMessage(err))
		return err
	}

	var res *scrapely.Result
	if c.File != "" {
		var page *scrapely.Page
		if page, err = deps.readPage(c.URL, c.File); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		res, err = s.ScrapePage(deps.Ctx, page)
	} else {
		res, err = s.Scrape(deps.Ctx, c.URL)
	}
	if err != nil {
		if scrapely.ErrorCode(err) == scrapely.ENOMATCH {
			fmt.Fprintf(deps.Stderr, "error: no template in set %q matches %s\n", c.Set, c.URL)
		} else {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		}
		return err
	}

	if c.Markdown {
		if err := deps.Converter.ConvertResult(res); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Records)
}
