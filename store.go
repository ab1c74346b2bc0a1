package scrapely

import (
	"context"
	"time"
)

// TemplateEntry is a stored template. Entries are grouped into named sets;
// Position orders the templates of a set, which is the order they are tried
// in during extraction.
type TemplateEntry struct {
	ID        string          `json:"id"`
	Set       string          `json:"set"`
	Position  int             `json:"position"`
	Record    *TemplateRecord `json:"record"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Validate returns an error if the entry contains invalid fields.
func (e *TemplateEntry) Validate() error {
	if e.Set == "" {
		return Errorf(EINVALID, "template set name required")
	}
	if e.Record == nil {
		return Errorf(EINVALID, "template record required")
	}
	return e.Record.Validate()
}

// TemplateService manages stored templates.
type TemplateService interface {
	// CreateTemplate stores a new entry, assigning its ID, Position (end of
	// its set) and CreatedAt.
	CreateTemplate(ctx context.Context, entry *TemplateEntry) error

	// FindTemplateByID returns ENOTFOUND if the entry does not exist.
	FindTemplateByID(ctx context.Context, id string) (*TemplateEntry, error)

	// FindTemplates returns entries ordered by set and position.
	FindTemplates(ctx context.Context, filter TemplateFilter) ([]*TemplateEntry, error)

	// DeleteTemplate returns ENOTFOUND if the entry does not exist.
	DeleteTemplate(ctx context.Context, id string) error

	// DeleteTemplatesBySet removes every entry of a set and returns how many
	// were removed.
	DeleteTemplatesBySet(ctx context.Context, set string) (int, error)
}

// TemplateFilter represents a filter for FindTemplates.
type TemplateFilter struct {
	ID  *string `json:"id"`
	Set *string `json:"set"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// TemplateArchive reads and writes a portable file of template records.
type TemplateArchive interface {
	ReadTemplates(ctx context.Context) ([]*TemplateRecord, error)
	WriteTemplates(ctx context.Context, records []*TemplateRecord) error
}

// ResultStore saves crawl output with all-or-nothing semantics: results are
// staged by Save and only become visible on Commit.
type ResultStore interface {
	Save(ctx context.Context, url string, result *Result) error
	Commit() error
	Abort() error
}
