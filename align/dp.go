package align

import (
	"math"

	"github.com/fwojciec/scrapely"
)

type move uint8

const (
	moveNone move = iota
	moveStart
	moveSkip
	moveMatch
	moveDrop
	moveFill
	moveEmpty
	moveBypass
)

var negInf = math.Inf(-1)

// errBudget rejects templates whose alignment would exceed the work ceiling.
var errBudget = scrapely.Errorf(scrapely.ENOMATCH, "alignment budget exceeded")

// placement records where an element landed in the target. Positions are
// indices into target.idx, inclusive; start is -1 for elements left out.
type placement struct {
	start, end int
	qual       float64
}

func (p placement) placed() bool { return p.start >= 0 }

// alignment is the traced-back best path through the table.
type alignment struct {
	score   float64
	places  []placement
	quality float64
}

// table holds the alignment scores and backpointers, row-major.
// Row r means the first r elements are consumed; column j means the next
// target position is j.
type table struct {
	cols  int
	score []float64
	move  []move
	prev  []int32
}

func newTable(rows, cols int) *table {
	t := &table{
		cols:  cols,
		score: make([]float64, rows*cols),
		move:  make([]move, rows*cols),
		prev:  make([]int32, rows*cols),
	}
	for i := range t.score {
		t.score[i] = negInf
	}
	return t
}

func (t *table) at(r, j int) float64 { return t.score[r*t.cols+j] }

func (t *table) moveAt(r, j int) move { return t.move[r*t.cols+j] }

// relax stores s at (r, j) if it beats the current value. Ties keep the
// earlier writer.
func (t *table) relax(r, j int, s float64, m move, from int) {
	i := r*t.cols + j
	if s > t.score[i] {
		t.score[i] = s
		t.move[i] = m
		t.prev[i] = int32(from)
	}
}

// aligner aligns programs against one target page.
type aligner struct {
	opts   scrapely.Options
	target *target
}

// align finds the best-scoring alignment of prog against target positions
// [lo, hi). Leading and trailing target tokens are skipped for free.
func (a *aligner) align(prog *program, lo, hi int) (*alignment, error) {
	elems := prog.elems
	k := len(elems)
	n := hi - lo
	cols := n + 1
	cells := (k + 1) * cols
	if cells > a.opts.MaxAlignmentCells {
		return nil, errBudget
	}
	work := cells

	t := newTable(k+1, cols)
	for j := 0; j < cols; j++ {
		t.relax(0, j, 0, moveStart, j)
	}

	for r := 1; r <= k; r++ {
		e := &elems[r-1]
		for j := 0; j < cols; j++ {
			base := t.at(r-1, j)
			if base == negInf {
				continue
			}
			switch e.kind {
			case fixedElement:
				if j < n {
					if s, ok := a.match(e, lo+j); ok {
						t.relax(r, j+1, base+s, moveMatch, j)
					}
				}
				// Only the context tokens past a slot's bounding anchors
				// may go missing; the anchors themselves must match.
				if !e.mandatory {
					t.relax(r, j, base-a.opts.DropPenalty, moveDrop, j)
				}
			case slotElement:
				// Slots start right where the previous element ended;
				// anything skipped before them belongs in the fill instead.
				if r > 1 && t.moveAt(r-1, j) == moveSkip {
					continue
				}
				if e.optional {
					t.relax(r, j, base, moveEmpty, j)
				}
				work += a.fill(t, e, r, j, base, lo, n)
				if work > a.opts.MaxAlignmentCells {
					return nil, errBudget
				}
			}
		}
		if b, ok := prog.blockEndingAt(r - 1); ok {
			for j := 0; j < cols; j++ {
				if base := t.at(b.start, j); base != negInf {
					t.relax(r, j, base-b.penalty, moveBypass, j)
				}
			}
		}
		cost := a.opts.GapPenalty
		if r == k || elems[r].afterGap {
			cost = 0
		}
		for j := 0; j < n; j++ {
			if s := t.at(r, j); s != negInf {
				t.relax(r, j+1, s-cost, moveSkip, j)
			}
		}
	}

	best := -1
	for j := 0; j < cols; j++ {
		if s := t.at(k, j); s != negInf && (best < 0 || s > t.at(k, best)) {
			best = j
		}
	}
	if best < 0 {
		return nil, scrapely.Errorf(scrapely.ENOMATCH, "template structure not found")
	}
	return a.trace(prog, t, best, lo), nil
}

// fill extends a slot from target position j for as long as the fill stays
// inside the slot's container. Returns the number of tokens examined.
func (a *aligner) fill(t *table, e *element, r, j int, base float64, lo, n int) int {
	if j >= n {
		return 0
	}
	page := a.target.page
	minDepth := page.Tokens[a.target.idx[lo+j]].Depth + e.relDepth
	hasText := false
	count := 0
	for j2 := j; j2 < n && count < a.opts.MaxSlotTokens; j2++ {
		tok := &page.Tokens[a.target.idx[lo+j2]]
		if tok.Depth < minDepth {
			break
		}
		count++
		if tok.Kind == scrapely.TextToken {
			hasText = true
		}
		if hasText {
			t.relax(r, j2+1, base+e.weight, moveFill, j)
		}
	}
	return count
}

// match scores a fixed element against target position pos.
func (a *aligner) match(e *element, pos int) (float64, bool) {
	tok := &a.target.page.Tokens[a.target.idx[pos]]
	if tok.Kind != e.tok.Kind {
		return 0, false
	}
	switch tok.Kind {
	case scrapely.TextToken:
		if a.target.text[pos] == e.text {
			return 1, true
		}
		return a.opts.TextMismatchScore, true
	case scrapely.EndTagToken:
		return 1, tok.Tag == e.tok.Tag
	default:
		if tok.Tag != e.tok.Tag {
			return 0, false
		}
		sim := attrSimilarity(e.tok.Attrs, tok.Attrs)
		if e.mandatory && sim < a.opts.MinAnchorSimilarity {
			return 0, false
		}
		return (1 - a.opts.AttrWeight) + a.opts.AttrWeight*sim, true
	}
}

func (a *aligner) trace(prog *program, t *table, best, lo int) *alignment {
	k := len(prog.elems)
	al := &alignment{score: t.at(k, best), places: make([]placement, k)}
	for i := range al.places {
		al.places[i] = placement{start: -1, end: -1}
	}
	r, j := k, best
	for r > 0 {
		i := r*t.cols + j
		from := int(t.prev[i])
		switch t.move[i] {
		case moveSkip:
			j = from
			continue
		case moveMatch:
			al.places[r-1] = placement{start: lo + from, end: lo + from, qual: t.at(r, j) - t.at(r-1, from)}
			r--
		case moveFill:
			al.places[r-1] = placement{start: lo + from, end: lo + j - 1}
			r--
		case moveBypass:
			b, _ := prog.blockEndingAt(r - 1)
			r = b.start
		default:
			r--
		}
		j = from
	}

	fixed, matched := 0, 0
	for i := range prog.elems {
		if prog.elems[i].kind != fixedElement {
			continue
		}
		fixed++
		if al.places[i].placed() {
			matched++
		}
	}
	al.quality = 1
	if fixed > 0 {
		al.quality = float64(matched) / float64(fixed)
	}
	return al
}
