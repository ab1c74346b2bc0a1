package scrapely

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldValue is an extracted field value: either a single text or an ordered
// sequence of texts.
type FieldValue struct {
	values []string
	many   bool
}

// Scalar returns a single-valued FieldValue.
func Scalar(s string) FieldValue {
	return FieldValue{values: []string{s}}
}

// Many returns a multi-valued FieldValue.
func Many(vs ...string) FieldValue {
	values := make([]string, len(vs))
	copy(values, vs)
	return FieldValue{values: values, many: true}
}

// IsMany reports whether the value is multi-valued.
func (v FieldValue) IsMany() bool { return v.many }

// Text returns the scalar text, or the values joined by newlines.
func (v FieldValue) Text() string {
	return strings.Join(v.values, "\n")
}

// Values returns a copy of the underlying texts.
func (v FieldValue) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

// MarshalJSON encodes scalars as strings and multi-values as arrays.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.many {
		return json.Marshal(v.values)
	}
	return json.Marshal(v.Text())
}

// Record is one extracted item: field values keyed by field name, in the
// order fields were first set.
type Record struct {
	fields []string
	values map[string]FieldValue
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]FieldValue)}
}

// Set stores v under field. Re-setting a field keeps its original position.
func (r *Record) Set(field string, v FieldValue) {
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = v
}

// Get returns the value stored under field.
func (r *Record) Get(field string) (FieldValue, bool) {
	v, ok := r.values[field]
	return v, ok
}

// Fields returns field names in insertion order.
func (r *Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.fields) }

// Clone returns an independent copy of the record.
func (r *Record) Clone() *Record {
	c := NewRecord()
	for _, f := range r.fields {
		c.Set(f, r.values[f])
	}
	return c
}

// MarshalJSON encodes the record as a JSON object preserving field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[f])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Result is the outcome of a successful extraction.
type Result struct {
	// Records holds one record per detected repeated item, in document order,
	// or a single record when no repetition was found.
	Records []*Record

	// Template is the winning template and TemplateIndex its position in the
	// list passed to Extract.
	Template      *Template
	TemplateIndex int

	Score   float64
	Quality float64

	// Attempts holds the evaluation of every template, winner included.
	Attempts []Attempt
}

// Attempt describes how a single template fared against a page.
type Attempt struct {
	TemplateIndex int
	Score         float64

	// Quality is the proportion of anchor tokens matched, 0..1.
	Quality float64

	// Filled is the number of annotations that found a slot fill.
	Filled  int
	Records int

	// Err is the rejection reason, nil for templates that matched.
	Err error
}

// MatchError is returned when no template matches a page.
// It unwraps to an ENOMATCH application error.
type MatchError struct {
	Attempts []Attempt
}

// Error implements the error interface.
func (e *MatchError) Error() string {
	if len(e.Attempts) == 0 {
		return "no match: no templates"
	}
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, fmt.Sprintf("template %d: %v", a.TemplateIndex, a.Err))
	}
	return "no match: " + strings.Join(reasons, "; ")
}

// Unwrap exposes the application error so ErrorCode reports ENOMATCH.
func (e *MatchError) Unwrap() error {
	return &Error{Code: ENOMATCH, Message: e.Error()}
}

// Extractor aligns templates against a page and extracts field values.
type Extractor interface {
	// Extract returns the result of the best-scoring template.
	// Returns a *MatchError (ENOMATCH) when no template matches.
	Extract(ctx context.Context, templates []*Template, page *Page) (*Result, error)
}
