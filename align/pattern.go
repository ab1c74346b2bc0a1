package align

import "github.com/fwojciec/scrapely"

type elementKind uint8

const (
	fixedElement elementKind = iota
	slotElement
)

// element is one position of a compiled template.
type element struct {
	kind elementKind

	// tok is the template token a fixed element stands for.
	tok  *scrapely.Token
	text string

	// ann is the annotation index a slot stands for.
	ann      int
	weight   float64
	relDepth int
	optional bool

	// mandatory fixed elements bound a slot directly and cannot be dropped.
	mandatory bool

	// afterGap is set when template tokens were left out between the
	// previous element and this one; target tokens skipped there are free.
	afterGap bool
}

// block is an inclusive range of elements that may be bypassed together.
type block struct {
	start, end int
	penalty    float64
}

// program is a compiled template: the elements to align plus the optional
// blocks among them.
type program struct {
	elems  []element
	blocks []block
}

// fixed returns the number of fixed elements.
func (p *program) fixed() int {
	n := 0
	for i := range p.elems {
		if p.elems[i].kind == fixedElement {
			n++
		}
	}
	return n
}

// blockEndingAt returns the block whose last element is end.
func (p *program) blockEndingAt(end int) (block, bool) {
	for _, b := range p.blocks {
		if b.end == end {
			return b, true
		}
	}
	return block{}, false
}

// sub returns the program restricted to elements lo through hi. Blocks that
// are not wholly inside the range are discarded.
func (p *program) sub(lo, hi int) *program {
	s := &program{elems: p.elems[lo : hi+1]}
	for _, b := range p.blocks {
		if b.start >= lo && b.end <= hi {
			s.blocks = append(s.blocks, block{start: b.start - lo, end: b.end - lo, penalty: b.penalty})
		}
	}
	return s
}

// unit is a template token kept for alignment, or a whole annotation.
type unit struct {
	tok int
	ann int // -1 for fixed tokens
}

// compile turns a template into a program. Each annotation becomes a slot
// surrounded by up to window fixed tokens on each side; windows stop at
// neighbouring slots. Whitespace, comments and script text are left out.
func compile(tmpl *scrapely.Template, opts scrapely.Options) *program {
	page := tmpl.Page
	anns := tmpl.Annotations

	var units []unit
	ai := 0
	for i := 0; i < page.Len(); i++ {
		for ai < len(anns) && anns[ai].End < i {
			ai++
		}
		if ai < len(anns) && anns[ai].Start <= i {
			if i == anns[ai].Start {
				units = append(units, unit{tok: i, ann: ai})
			}
			continue
		}
		if skipped(page, i) {
			continue
		}
		units = append(units, unit{tok: i, ann: -1})
	}

	include := make([]bool, len(units))
	mandatory := make([]bool, len(units))
	for p, u := range units {
		if u.ann < 0 {
			continue
		}
		include[p] = true
		for d, q := 1, p-1; d <= opts.AnchorWindow && q >= 0 && units[q].ann < 0; d, q = d+1, q-1 {
			include[q] = true
			mandatory[q] = mandatory[q] || d == 1
		}
		for d, q := 1, p+1; d <= opts.AnchorWindow && q < len(units) && units[q].ann < 0; d, q = d+1, q+1 {
			include[q] = true
			mandatory[q] = mandatory[q] || d == 1
		}
	}

	prog := &program{}
	last := -1
	for p, u := range units {
		if !include[p] {
			continue
		}
		e := element{afterGap: last >= 0 && p != last+1}
		last = p
		if u.ann >= 0 {
			a := &anns[u.ann]
			e.kind = slotElement
			e.ann = u.ann
			e.weight = a.Weight
			if e.weight == 0 {
				e.weight = scrapely.DefaultWeight
			}
			e.optional = !a.Required
			e.relDepth = relDepth(page, a)
		} else {
			e.kind = fixedElement
			e.tok = &page.Tokens[u.tok]
			e.mandatory = mandatory[p]
			if e.tok.Kind == scrapely.TextToken {
				e.text = scrapely.NormalizeText(page.Raw(u.tok))
			}
		}
		prog.elems = append(prog.elems, e)
	}
	prog.blocks = optionalBlocks(prog.elems, opts.DropPenalty)
	return prog
}

// skipped reports whether token i carries nothing worth aligning.
func skipped(page *scrapely.Page, i int) bool {
	return page.IsNoise(i) || page.Tokens[i].RawText
}

// relDepth is how far above its first token an annotation's range climbs.
func relDepth(page *scrapely.Page, a *scrapely.Annotation) int {
	d0 := page.Tokens[a.Start].Depth
	dmin := d0
	for i := a.Start; i <= a.End; i++ {
		if d := page.Tokens[i].Depth; d < dmin {
			dmin = d
		}
	}
	return dmin - d0
}

// optionalBlocks groups each optional slot with its immediate anchors so the
// three can be bypassed together when the field is absent. Anchors shared
// with a required slot stay out of the block. Overlapping blocks are merged.
func optionalBlocks(elems []element, dropPenalty float64) []block {
	isSlot := func(i int) bool { return i >= 0 && i < len(elems) && elems[i].kind == slotElement }
	requiredSlot := func(i int) bool { return isSlot(i) && !elems[i].optional }
	anchor := func(i int) bool {
		return i >= 0 && i < len(elems) && elems[i].kind == fixedElement && elems[i].mandatory
	}

	var blocks []block
	for k := range elems {
		if !isSlot(k) || !elems[k].optional {
			continue
		}
		b := block{start: k, end: k}
		if anchor(k-1) && !requiredSlot(k-2) {
			b.start = k - 1
		}
		if anchor(k+1) && !requiredSlot(k+2) {
			b.end = k + 1
		}
		if n := len(blocks); n > 0 && b.start <= blocks[n-1].end {
			blocks[n-1].end = b.end
			continue
		}
		blocks = append(blocks, b)
	}
	for i := range blocks {
		for k := blocks[i].start; k <= blocks[i].end; k++ {
			if elems[k].kind == fixedElement {
				blocks[i].penalty += dropPenalty
			}
		}
	}
	return blocks
}
