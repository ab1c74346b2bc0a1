package align

import "github.com/fwojciec/scrapely"

// repetition is a run of sibling elements that each contain the item
// sub-pattern, elements lo through hi of the program.
type repetition struct {
	lo, hi int
	items  [][]placement // per item, placements of elements lo..hi
}

// repeats looks, for each filled slot in turn, for the lowest ancestor whose
// contiguous same-tag siblings re-align the part of the program it contains.
func (a *aligner) repeats(prog *program, al *alignment) (*repetition, bool) {
	page := a.target.page
	for s := range prog.elems {
		if prog.elems[s].kind != slotElement || !al.places[s].placed() {
			continue
		}
		for anc := page.Tokens[a.target.idx[al.places[s].start]].Parent; anc >= 0; anc = page.Tokens[anc].Parent {
			lo, hi, ok := a.itemRange(prog, al, s, anc)
			if !ok {
				continue
			}
			anchors := 0
			for i := lo; i <= hi; i++ {
				if prog.elems[i].kind == fixedElement && al.places[i].placed() {
					anchors++
				}
			}
			if anchors < a.opts.MinRepeatAnchors {
				continue
			}
			if rep := a.siblings(prog, al, anc, lo, hi); len(rep.items) >= 2 {
				return rep, true
			}
		}
	}
	return nil, false
}

// itemRange returns the widest run of elements around slot s that landed
// inside the element opened at anc. Elements left out of the alignment are
// absorbed when they sit between elements that landed inside.
func (a *aligner) itemRange(prog *program, al *alignment, s, anc int) (int, int, bool) {
	first, last := anc, a.target.page.ElementEnd(anc)
	inside := func(i int) bool {
		p := al.places[i]
		return !p.placed() || (a.target.idx[p.start] >= first && a.target.idx[p.end] <= last)
	}
	if !inside(s) {
		return 0, 0, false
	}
	lo, hi := s, s
	for lo > 0 && inside(lo-1) {
		lo--
	}
	for hi < len(prog.elems)-1 && inside(hi+1) {
		hi++
	}
	for lo < s && !al.places[lo].placed() {
		lo++
	}
	for hi > s && !al.places[hi].placed() {
		hi--
	}
	return lo, hi, true
}

// siblings re-aligns the item sub-pattern within each contiguous same-tag
// sibling of anc, walking outwards until a sibling fails to match.
func (a *aligner) siblings(prog *program, al *alignment, anc, lo, hi int) *repetition {
	sub := prog.sub(lo, hi)
	ref := al.places[lo : hi+1]
	var before, after [][]placement
	for x := a.prevSibling(anc); x >= 0; x = a.prevSibling(x) {
		places, ok := a.alignItem(sub, ref, x)
		if !ok {
			break
		}
		before = append(before, places)
	}
	for x := a.nextSibling(anc); x >= 0; x = a.nextSibling(x) {
		places, ok := a.alignItem(sub, ref, x)
		if !ok {
			break
		}
		after = append(after, places)
	}

	rep := &repetition{lo: lo, hi: hi}
	for i := len(before) - 1; i >= 0; i-- {
		rep.items = append(rep.items, before[i])
	}
	rep.items = append(rep.items, ref)
	rep.items = append(rep.items, after...)
	return rep
}

// alignItem aligns sub within the element opened at x. The item counts when
// every required slot and at least one slot is filled, enough of its fixed
// tokens matched, and every text anchor reads the same as in ref, the
// placements of the item the slot was found in. Siblings with different
// labels are different sections, not items of one list.
func (a *aligner) alignItem(sub *program, ref []placement, x int) ([]placement, bool) {
	lo, hi := a.target.span(x, a.target.page.ElementEnd(x))
	al, err := a.align(sub, lo, hi)
	if err != nil || al.quality < a.opts.RepeatMinQuality {
		return nil, false
	}
	filled := 0
	for i := range sub.elems {
		e := &sub.elems[i]
		p := al.places[i]
		switch {
		case e.kind == fixedElement:
			if e.tok.Kind == scrapely.TextToken && p.placed() && ref[i].placed() &&
				a.target.text[p.start] != a.target.text[ref[i].start] {
				return nil, false
			}
		case p.placed():
			filled++
		case !e.optional:
			return nil, false
		}
	}
	return al.places, filled > 0
}

// prevSibling returns the start tag of the element immediately before x with
// the same tag and parent, or -1.
func (a *aligner) prevSibling(x int) int {
	toks := a.target.page.Tokens
	k := x - 1
	for k >= 0 && !a.target.included(k) {
		k--
	}
	if k < 0 {
		return -1
	}
	y := k
	if toks[y].Kind == scrapely.EndTagToken && toks[y].Match >= 0 {
		y = toks[y].Match
	}
	parent := toks[x].Parent
	for y >= 0 && toks[y].Parent != parent {
		y = toks[y].Parent
	}
	if y < 0 || !sameElement(&toks[y], &toks[x]) {
		return -1
	}
	if end := a.target.page.ElementEnd(y); end < k || end >= x {
		return -1
	}
	return y
}

// nextSibling returns the start tag of the element immediately after x with
// the same tag and parent, or -1.
func (a *aligner) nextSibling(x int) int {
	toks := a.target.page.Tokens
	k := a.target.page.ElementEnd(x) + 1
	for k < len(toks) && !a.target.included(k) {
		k++
	}
	if k >= len(toks) || toks[k].Parent != toks[x].Parent || !sameElement(&toks[k], &toks[x]) {
		return -1
	}
	return k
}

func sameElement(a, b *scrapely.Token) bool {
	return a.Kind == scrapely.StartTagToken && b.Kind == scrapely.StartTagToken && a.Tag == b.Tag
}
