package scrapely

// TemplateRecord is the persisted form of a Template. Body holds the decoded
// UTF-8 markup, so re-tokenizing it reproduces the original token ranges.
type TemplateRecord struct {
	URL         string       `json:"url"`
	Body        string       `json:"body"`
	Encoding    string       `json:"encoding"`
	Checksum    string       `json:"checksum,omitempty"`
	Annotations []Annotation `json:"annotations"`
}

// Validate returns an error if the record contains invalid fields.
func (r *TemplateRecord) Validate() error {
	if r.Body == "" {
		return Errorf(EINVALID, "template body required")
	}
	if len(r.Annotations) == 0 {
		return Errorf(EINVALID, "template has no annotations")
	}
	return nil
}

// Record returns the persisted form of the template.
func (t *Template) Record() *TemplateRecord {
	annotations := make([]Annotation, len(t.Annotations))
	copy(annotations, t.Annotations)
	return &TemplateRecord{
		URL:         t.Page.URL,
		Body:        t.Page.Body,
		Encoding:    t.Page.Encoding,
		Annotations: annotations,
	}
}

// NewTemplateFromRecord rebuilds a template from its persisted form.
// Annotations are re-applied by token index and validated against the
// re-tokenized page.
func NewTemplateFromRecord(rec *TemplateRecord, tokenizer Tokenizer) (*Template, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	page := tokenizer.Tokenize(rec.URL, []byte(rec.Body), "utf-8")
	page.Encoding = rec.Encoding
	m := NewTemplateMaker(page, nil)
	for _, a := range rec.Annotations {
		if err := m.AnnotateRange(a); err != nil {
			return nil, err
		}
	}
	return m.Template(), nil
}
