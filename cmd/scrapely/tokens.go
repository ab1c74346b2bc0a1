package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fwojciec/scrapely"
)

// maxTokenText truncates long text runs in the token dump.
const maxTokenText = 60

// Run executes the tokens command.
func (c *TokensCmd) Run(deps *Dependencies) error {
	var page *scrapely.Page
	if c.File != "" {
		p, err := deps.readPage(c.URL, c.File)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		page = p
	} else {
		body, err := deps.Fetcher.Fetch(deps.Ctx, c.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		page = deps.Tokenizer.Tokenize(c.URL, []byte(body), "utf-8")
	}

	fmt.Fprintf(deps.Stdout, "%s (%s, %d tokens)\n", page.URL, page.Encoding, page.Len())
	for i := range page.Tokens {
		t := &page.Tokens[i]
		raw := page.Raw(i)
		if t.Kind == scrapely.TextToken {
			raw = strconv.Quote(truncate(raw, maxTokenText))
		}
		fmt.Fprintf(deps.Stdout, "%5d  %-12s %s%s\n", i, t.Kind, strings.Repeat("  ", t.Depth), raw)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
