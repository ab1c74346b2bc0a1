package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/xxhash"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ scrapely.TemplateService = (*TemplateService)(nil)

// TemplateService implements scrapely.TemplateService using SQLite.
type TemplateService struct {
	db *DB
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(db *DB) *TemplateService {
	return &TemplateService{db: db}
}

const templateColumns = "id, set_name, position, url, body, encoding, checksum, annotations, created_at"

// CreateTemplate stores a new template at the end of its set.
func (s *TemplateService) CreateTemplate(ctx context.Context, entry *scrapely.TemplateEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	annotations, err := json.Marshal(entry.Record.Annotations)
	if err != nil {
		return fmt.Errorf("failed to encode annotations: %w", err)
	}

	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()
	xxhash.Stamp(entry.Record)

	return s.db.QueryRowContext(ctx, `
		INSERT INTO templates (`+templateColumns+`)
		VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM templates WHERE set_name = ?), ?, ?, ?, ?, ?, ?)
		RETURNING position
	`, entry.ID, entry.Set, entry.Set, entry.Record.URL, entry.Record.Body, entry.Record.Encoding,
		entry.Record.Checksum, string(annotations), entry.CreatedAt.Format(time.RFC3339)).Scan(&entry.Position)
}

// FindTemplateByID retrieves a template by ID.
func (s *TemplateService) FindTemplateByID(ctx context.Context, id string) (*scrapely.TemplateEntry, error) {
	entries, err := s.FindTemplates(ctx, scrapely.TemplateFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, scrapely.Errorf(scrapely.ENOTFOUND, "template not found")
	}
	return entries[0], nil
}

// FindTemplates retrieves templates matching the filter, ordered by set and
// position.
func (s *TemplateService) FindTemplates(ctx context.Context, filter scrapely.TemplateFilter) ([]*scrapely.TemplateEntry, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + templateColumns + " FROM templates WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Set != nil {
		query.WriteString(" AND set_name = ?")
		args = append(args, *filter.Set)
	}

	// Extraction tries a set's templates in position order.
	query.WriteString(" ORDER BY set_name ASC, position ASC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query.WriteString(" LIMIT -1")
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*scrapely.TemplateEntry
	for rows.Next() {
		entry, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// DeleteTemplate permanently removes a template. Later templates of the same
// set keep their positions.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return scrapely.Errorf(scrapely.ENOTFOUND, "template not found")
	}

	return nil
}

// DeleteTemplatesBySet removes all templates of a set.
func (s *TemplateService) DeleteTemplatesBySet(ctx context.Context, set string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE set_name = ?", set)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(rows), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*scrapely.TemplateEntry, error) {
	entry := scrapely.TemplateEntry{Record: &scrapely.TemplateRecord{}}
	var annotations, createdAt string

	err := row.Scan(&entry.ID, &entry.Set, &entry.Position, &entry.Record.URL, &entry.Record.Body,
		&entry.Record.Encoding, &entry.Record.Checksum, &annotations, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scrapely.Errorf(scrapely.ENOTFOUND, "template not found")
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(annotations), &entry.Record.Annotations); err != nil {
		return nil, fmt.Errorf("failed to decode annotations: %w", err)
	}

	entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("template %s: failed to parse created_at: %w", entry.ID, err)
	}

	return &entry, nil
}
