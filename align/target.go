package align

import (
	"sort"

	"github.com/fwojciec/scrapely"
)

// target is the view of a page that templates are aligned against:
// every token except whitespace, comments and script text.
type target struct {
	page *scrapely.Page
	idx  []int    // page token index of each position
	text []string // normalized text of text tokens
}

func newTarget(page *scrapely.Page) *target {
	tg := &target{page: page}
	for i := range page.Tokens {
		if skipped(page, i) {
			continue
		}
		text := ""
		if page.Tokens[i].Kind == scrapely.TextToken {
			text = scrapely.NormalizeText(page.Raw(i))
		}
		tg.idx = append(tg.idx, i)
		tg.text = append(tg.text, text)
	}
	return tg
}

func (tg *target) len() int { return len(tg.idx) }

// span returns the positions [lo, hi) of the page tokens first through last.
func (tg *target) span(first, last int) (int, int) {
	lo := sort.SearchInts(tg.idx, first)
	hi := sort.SearchInts(tg.idx, last+1)
	return lo, hi
}

// included reports whether page token i is part of the view.
func (tg *target) included(i int) bool {
	j := sort.SearchInts(tg.idx, i)
	return j < len(tg.idx) && tg.idx[j] == i
}
