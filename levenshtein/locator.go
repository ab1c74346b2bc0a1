// Package levenshtein implements scrapely.Locator using normalized text
// search with Levenshtein similarity as the fuzzy fallback.
package levenshtein

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"github.com/fwojciec/scrapely"
)

var _ scrapely.Locator = (*Locator)(nil)

// Locator finds the token range of a page whose visible text best matches a
// training value.
type Locator struct {
	// MinSimilarity is the lowest accepted similarity, 0..1.
	MinSimilarity float64

	// CaseFold compares text case-insensitively.
	CaseFold bool
}

// NewLocator returns a Locator configured from opts.
func NewLocator(opts scrapely.Options) *Locator {
	return &Locator{
		MinSimilarity: opts.MinSimilarity,
		CaseFold:      opts.CaseFold,
	}
}

// candidate is a scored stretch of the text stream.
type candidate struct {
	sim   float64
	tight float64

	// first and last index into stream.runs.
	first, last int

	// start and end are byte offsets into the stream, half-open.
	start, end int
}

// Locate returns the region whose text best matches value. Exact occurrences,
// which may start or end inside a text run, are preferred; only when there is
// none are token-aligned windows compared by edit distance.
func (l *Locator) Locate(page *scrapely.Page, value string) (scrapely.Region, bool) {
	target := scrapely.NormalizeText(value)
	if l.CaseFold {
		target = fold(target)
	}
	if target == "" {
		return scrapely.Region{}, false
	}
	s := newStream(page, l.CaseFold)
	if len(s.runs) == 0 {
		return scrapely.Region{}, false
	}

	best, ok := s.exact(target)
	if !ok {
		best, ok = s.fuzzy(target, l.MinSimilarity)
	}
	if !ok || best.sim < l.MinSimilarity {
		return scrapely.Region{}, false
	}

	first, last := s.runs[best.first], s.runs[best.last]
	return scrapely.Region{
		Start:  first.tok,
		End:    last.tok,
		Score:  best.sim,
		Prefix: strings.TrimSpace(s.orig[first.start:best.start]),
		Suffix: strings.TrimSpace(s.orig[best.end:last.end]),
	}, true
}

func (s *stream) exact(target string) (candidate, bool) {
	var best candidate
	found := false
	for from := 0; from+len(target) <= len(s.text); {
		i := strings.Index(s.text[from:], target)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(target)
		c := s.candidate(s.owner[start], s.owner[end-1], start, end, 1)
		if !found || better(c, best) {
			best, found = c, true
		}
		_, size := utf8.DecodeRuneInString(s.text[start:])
		from = start + size
	}
	return best, found
}

func (s *stream) fuzzy(target string, minSim float64) (candidate, bool) {
	n := utf8.RuneCountInString(target)
	maxSpan := 2*len(target) + 8
	var best candidate
	found := false
	for i := range s.runs {
		for j := i; j < len(s.runs); j++ {
			start, end := s.runs[i].start, s.runs[j].end
			if end-start > maxSpan {
				break
			}
			text := s.text[start:end]
			// Edit distance is at least the length difference, which bounds
			// the similarity from above.
			m := utf8.RuneCountInString(text)
			if ratio(n, m) < minSim {
				if m > n {
					break
				}
				continue
			}
			sim := levenshtein.Similarity(text, target, nil)
			c := s.candidate(i, j, start, end, sim)
			if !found || better(c, best) {
				best, found = c, true
			}
		}
	}
	return best, found
}

func (s *stream) candidate(first, last, start, end int, sim float64) candidate {
	span := s.runs[last].end - s.runs[first].start
	return candidate{
		sim:   sim,
		tight: float64(end-start) / float64(span),
		first: first,
		last:  last,
		start: start,
		end:   end,
	}
}

// better ranks by similarity, then by how much of the covered text is the
// value, then by fewest tokens, then earliest.
func better(a, b candidate) bool {
	if a.sim != b.sim {
		return a.sim > b.sim
	}
	if a.tight != b.tight {
		return a.tight > b.tight
	}
	if da, db := a.last-a.first, b.last-b.first; da != db {
		return da < db
	}
	return a.start < b.start
}

func ratio(a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	if b == 0 {
		return 1
	}
	return float64(a) / float64(b)
}

// run is the stretch of the stream produced by one text token.
type run struct {
	tok        int
	start, end int
}

// stream is the normalized visible text of a page. Whitespace is collapsed,
// block-level tags separate words and character references are decoded.
// text is case-folded when requested; orig has identical byte layout.
type stream struct {
	text  string
	orig  string
	runs  []run
	owner []int // owner[b] is the run that produced byte b of text
}

func newStream(page *scrapely.Page, caseFold bool) *stream {
	var text, orig strings.Builder
	var runs []run
	var owner []int
	pending := false
	for i := range page.Tokens {
		t := &page.Tokens[i]
		if t.Kind.IsTag() && scrapely.IsBlockTag(t.Tag) {
			pending = true
			continue
		}
		if t.Kind != scrapely.TextToken || t.RawText {
			continue
		}
		raw := page.Raw(i)
		if strings.IndexByte(raw, '&') >= 0 {
			raw = html.UnescapeString(raw)
		}
		r := run{tok: i, start: -1}
		for _, c := range raw {
			if scrapely.IsSpace(c) {
				pending = true
				continue
			}
			if pending && text.Len() > 0 {
				text.WriteByte(' ')
				orig.WriteByte(' ')
				owner = append(owner, len(runs))
			}
			pending = false
			if r.start < 0 {
				r.start = text.Len()
			}
			fc := c
			if caseFold {
				fc = foldRune(c)
			}
			text.WriteRune(fc)
			orig.WriteRune(c)
			for k := utf8.RuneLen(c); k > 0; k-- {
				owner = append(owner, len(runs))
			}
			r.end = text.Len()
		}
		if r.start >= 0 {
			runs = append(runs, r)
		}
	}
	return &stream{text: text.String(), orig: orig.String(), runs: runs, owner: owner}
}

// foldRune lowercases c unless that would change its encoded length, which
// keeps folded and original streams byte-aligned.
func foldRune(c rune) rune {
	if c == utf8.RuneError {
		return c
	}
	lc := unicode.ToLower(c)
	if utf8.RuneLen(lc) != utf8.RuneLen(c) {
		return c
	}
	return lc
}

func fold(s string) string {
	return strings.Map(foldRune, s)
}
