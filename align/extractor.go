// Package align implements scrapely.Extractor as a dynamic-programming
// alignment of compiled templates against target pages.
package align

import (
	"context"
	"strings"

	"github.com/fwojciec/scrapely"
	"golang.org/x/sync/errgroup"
)

var _ scrapely.Extractor = (*Extractor)(nil)

// Extractor aligns templates against pages and reads field values out of the
// regions that line up with annotations. It holds no state between calls.
type Extractor struct {
	Options scrapely.Options
}

// NewExtractor returns an Extractor using opts.
func NewExtractor(opts scrapely.Options) *Extractor {
	return &Extractor{Options: opts}
}

// outcome is the evaluation of one template.
type outcome struct {
	attempt scrapely.Attempt
	records []*scrapely.Record
}

// Extract evaluates every template against page concurrently and returns the
// result of the highest-scoring one. Ties go to the earliest template.
func (x *Extractor) Extract(ctx context.Context, templates []*scrapely.Template, page *scrapely.Page) (*scrapely.Result, error) {
	if err := x.Options.Validate(); err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, &scrapely.MatchError{}
	}

	tg := newTarget(page)
	outcomes := make([]outcome, len(templates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(x.Options.Parallelism)
	for i, tmpl := range templates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = x.evaluate(tmpl, tg)
			outcomes[i].attempt.TemplateIndex = i
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attempts := make([]scrapely.Attempt, len(outcomes))
	best := -1
	for i := range outcomes {
		attempts[i] = outcomes[i].attempt
		if attempts[i].Err != nil {
			continue
		}
		if best < 0 || attempts[i].Score > attempts[best].Score {
			best = i
		}
	}
	if best < 0 {
		return nil, &scrapely.MatchError{Attempts: attempts}
	}
	return &scrapely.Result{
		Records:       outcomes[best].records,
		Template:      templates[best],
		TemplateIndex: best,
		Score:         attempts[best].Score,
		Quality:       attempts[best].Quality,
		Attempts:      attempts,
	}, nil
}

func (x *Extractor) evaluate(tmpl *scrapely.Template, tg *target) outcome {
	if len(tmpl.Annotations) == 0 {
		return reject(scrapely.Errorf(scrapely.ENOMATCH, "template has no annotations"))
	}
	a := &aligner{opts: x.Options, target: tg}
	prog := compile(tmpl, x.Options)
	al, err := a.align(prog, 0, tg.len())
	if err != nil {
		return reject(err)
	}

	filled := make([]bool, len(tmpl.Annotations))
	for i := range prog.elems {
		if e := &prog.elems[i]; e.kind == slotElement && al.places[i].placed() {
			filled[e.ann] = true
		}
	}
	score := x.Options.QualityWeight * al.quality
	count := 0
	for i, ok := range filled {
		ann := &tmpl.Annotations[i]
		if !ok && ann.Required {
			return reject(scrapely.Errorf(scrapely.ENOMATCH, "required field %q not found", ann.Field))
		}
		if ok {
			count++
			score += ann.Weight
		}
	}
	if count == 0 {
		return reject(scrapely.Errorf(scrapely.ENOMATCH, "no fields found"))
	}

	records := []*scrapely.Record{a.record(tmpl, prog, al.places)}
	if x.Options.DetectRepeats {
		if rep, ok := a.repeats(prog, al); ok {
			records = records[:0]
			for _, item := range rep.items {
				// Fields outside the item are shared by every record.
				places := make([]placement, len(al.places))
				copy(places, al.places)
				copy(places[rep.lo:rep.hi+1], item)
				records = append(records, a.record(tmpl, prog, places))
			}
		}
	}

	return outcome{
		attempt: scrapely.Attempt{
			Score:   score,
			Quality: al.quality,
			Filled:  count,
			Records: len(records),
		},
		records: records,
	}
}

func reject(err error) outcome {
	return outcome{attempt: scrapely.Attempt{Err: err}}
}

// record materializes the filled slots of one item. Fields keep the order
// of the template's annotations; fields annotated more than once yield
// multi-valued entries.
func (a *aligner) record(tmpl *scrapely.Template, prog *program, places []placement) *scrapely.Record {
	values := make(map[string][]string)
	for i := range prog.elems {
		e := &prog.elems[i]
		if e.kind != slotElement || !places[i].placed() {
			continue
		}
		ann := &tmpl.Annotations[e.ann]
		values[ann.Field] = append(values[ann.Field], a.materialize(ann, places[i]))
	}
	rec := scrapely.NewRecord()
	for _, field := range tmpl.Fields() {
		vs, ok := values[field]
		if !ok {
			continue
		}
		if tmpl.Multiplicity(field) > 1 {
			rec.Set(field, scrapely.Many(vs...))
		} else {
			rec.Set(field, scrapely.Scalar(vs[0]))
		}
	}
	return rec
}

// materialize renders a slot fill as text, trimming the text that surrounded
// the value in the template, or as verbatim markup.
func (a *aligner) materialize(ann *scrapely.Annotation, p placement) string {
	page := a.target.page
	first, last := a.target.idx[p.start], a.target.idx[p.end]
	if ann.AllowMarkup {
		return page.Markup(first, last)
	}
	text := page.Text(first, last)
	if ann.Prefix != "" && strings.HasPrefix(text, ann.Prefix) {
		text = strings.TrimSpace(text[len(ann.Prefix):])
	}
	if ann.Suffix != "" && strings.HasSuffix(text, ann.Suffix) {
		text = strings.TrimSpace(text[:len(text)-len(ann.Suffix)])
	}
	return text
}
