package scrapely

import (
	"sort"
	"strings"
)

// DefaultWeight is the weight given to annotations that do not set one.
const DefaultWeight = 1.0

// Annotation marks where a trained field's value was found in a template.
type Annotation struct {
	// Field is the field name. Several annotations may share a field name;
	// together they describe a multi-valued field.
	Field string `json:"field"`

	// Start and End are token indices; the range is inclusive.
	Start int `json:"start"`
	End   int `json:"end"`

	// Required annotations must be filled for the template to match.
	Required bool `json:"required"`

	// AllowMarkup preserves the inner markup verbatim instead of reducing
	// the value to text.
	AllowMarkup bool `json:"allowMarkup"`

	// Weight scales the annotation's contribution to a template's score.
	Weight float64 `json:"weight"`

	// Prefix and Suffix hold the text inside the first and last token that
	// surrounded the training value without being part of it.
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Validate returns an error if the annotation is malformed or falls outside
// a page of n tokens.
func (a *Annotation) Validate(n int) error {
	if strings.TrimSpace(a.Field) == "" {
		return Errorf(EINVALID, "annotation field name required")
	}
	if a.Start < 0 || a.End < a.Start || a.End >= n {
		return Errorf(EINVALID, "annotation %q range [%d, %d] outside page of %d tokens", a.Field, a.Start, a.End, n)
	}
	if a.Weight < 0 {
		return Errorf(EINVALID, "annotation %q weight must be positive", a.Field)
	}
	return nil
}

// Overlaps reports whether two annotations share at least one token.
func (a *Annotation) Overlaps(b *Annotation) bool {
	return a.Start <= b.End && b.Start <= a.End
}

// Template is a trained example: a page plus its annotations in document
// order. Templates are immutable and safe to share between goroutines.
type Template struct {
	Page        *Page
	Annotations []Annotation
}

// Fields returns the distinct field names in annotation order.
func (t *Template) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, a := range t.Annotations {
		if !seen[a.Field] {
			seen[a.Field] = true
			fields = append(fields, a.Field)
		}
	}
	return fields
}

// Multiplicity returns the number of annotations carrying the field name.
func (t *Template) Multiplicity(field string) int {
	n := 0
	for _, a := range t.Annotations {
		if a.Field == field {
			n++
		}
	}
	return n
}

// Region is a located token range for a training value.
type Region struct {
	// Start and End are token indices; the range is inclusive.
	Start int
	End   int

	// Score is the similarity between the value and the region text, 0..1.
	Score float64

	// Prefix and Suffix are the normalized texts inside the range that
	// precede and follow the value.
	Prefix string
	Suffix string
}

// Locator finds the region of a page that best matches a literal value.
type Locator interface {
	// Locate returns false when no region is similar enough. Callers treat
	// that as "value not annotatable on this page", not as a failure.
	Locate(page *Page, value string) (Region, bool)
}

// AnnotateOptions holds the extraction policy for a single annotation.
type AnnotateOptions struct {
	Required    bool
	AllowMarkup bool
	Weight      float64
}

// FieldSpec is a single training pair: a field and one of its values.
type FieldSpec struct {
	Field       string  `json:"field"`
	Value       string  `json:"value"`
	Required    bool    `json:"required"`
	AllowMarkup bool    `json:"allowMarkup"`
	Weight      float64 `json:"weight"`
}

// TemplateMaker builds a Template incrementally, one annotation per call.
// The page is never modified.
type TemplateMaker struct {
	page        *Page
	locator     Locator
	annotations []Annotation
}

// NewTemplateMaker returns a TemplateMaker for page that finds values with
// locator.
func NewTemplateMaker(page *Page, locator Locator) *TemplateMaker {
	return &TemplateMaker{page: page, locator: locator}
}

// Annotate locates value on the page and records it under field.
// Returns ENOTFOUND when the value cannot be located and ECONFLICT when the
// located region overlaps an existing annotation.
func (m *TemplateMaker) Annotate(field, value string, opts AnnotateOptions) error {
	if strings.TrimSpace(field) == "" {
		return Errorf(EINVALID, "annotation field name required")
	}
	region, ok := m.locator.Locate(m.page, value)
	if !ok {
		return Errorf(ENOTFOUND, "value for field %q not found on page", field)
	}
	return m.AnnotateRange(Annotation{
		Field:       field,
		Start:       region.Start,
		End:         region.End,
		Required:    opts.Required,
		AllowMarkup: opts.AllowMarkup,
		Weight:      opts.Weight,
		Prefix:      region.Prefix,
		Suffix:      region.Suffix,
	})
}

// AnnotateRange records an annotation whose token range is already known.
func (m *TemplateMaker) AnnotateRange(a Annotation) error {
	if a.Weight == 0 {
		a.Weight = DefaultWeight
	}
	if err := a.Validate(m.page.Len()); err != nil {
		return err
	}
	for i := range m.annotations {
		if existing := &m.annotations[i]; existing.Overlaps(&a) {
			return Errorf(ECONFLICT, "annotation %q [%d, %d] overlaps %q [%d, %d]",
				a.Field, a.Start, a.End, existing.Field, existing.Start, existing.End)
		}
	}
	m.annotations = append(m.annotations, a)
	return nil
}

// Template returns the template built so far. Later calls to Annotate do not
// affect templates already returned.
func (m *TemplateMaker) Template() *Template {
	annotations := make([]Annotation, len(m.annotations))
	copy(annotations, m.annotations)
	sort.SliceStable(annotations, func(i, j int) bool {
		return annotations[i].Start < annotations[j].Start
	})
	return &Template{Page: m.page, Annotations: annotations}
}

// BuildTemplate annotates page with every field value in order and returns the
// resulting template. The first value that cannot be annotated aborts the build.
func BuildTemplate(page *Page, locator Locator, specs []FieldSpec) (*Template, error) {
	if len(specs) == 0 {
		return nil, Errorf(EINVALID, "at least one field value required")
	}
	m := NewTemplateMaker(page, locator)
	for _, s := range specs {
		opts := AnnotateOptions{Required: s.Required, AllowMarkup: s.AllowMarkup, Weight: s.Weight}
		if err := m.Annotate(s.Field, s.Value, opts); err != nil {
			return nil, err
		}
	}
	return m.Template(), nil
}
