package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/xxhash"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// templateFileSchema describes the portable template file format.
const templateFileSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["templates"],
	"properties": {
		"templates": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["body", "annotations"],
				"properties": {
					"url": {"type": "string"},
					"body": {"type": "string", "minLength": 1},
					"encoding": {"type": "string"},
					"checksum": {"type": "string"},
					"annotations": {
						"type": "array",
						"minItems": 1,
						"items": {
							"type": "object",
							"required": ["field", "start", "end"],
							"properties": {
								"field": {"type": "string", "minLength": 1},
								"start": {"type": "integer", "minimum": 0},
								"end": {"type": "integer", "minimum": 0},
								"required": {"type": "boolean"},
								"allowMarkup": {"type": "boolean"},
								"weight": {"type": "number", "minimum": 0},
								"prefix": {"type": "string"},
								"suffix": {"type": "string"}
							}
						}
					}
				}
			}
		}
	}
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("templates.json", bytes.NewReader([]byte(templateFileSchema))); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("templates.json")
})

// Ensure TemplateFile implements scrapely.TemplateArchive at compile time.
var _ scrapely.TemplateArchive = (*TemplateFile)(nil)

// TemplateFile reads and writes templates as a single JSON document of the
// form {"templates": [...]}.
type TemplateFile struct {
	path string
}

// NewTemplateFile returns a TemplateFile backed by path.
func NewTemplateFile(path string) *TemplateFile {
	return &TemplateFile{path: path}
}

type templateFile struct {
	Templates []*scrapely.TemplateRecord `json:"templates"`
}

// ReadTemplates loads every record from the file. The document is validated
// against the file schema and every stored checksum is verified.
func (f *TemplateFile) ReadTemplates(ctx context.Context) ([]*scrapely.TemplateRecord, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, scrapely.Errorf(scrapely.ENOTFOUND, "template file %s not found", f.path)
	} else if err != nil {
		return nil, err
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("compile template schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, scrapely.Errorf(scrapely.EINVALID, "template file %s: %v", f.path, err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, scrapely.Errorf(scrapely.EINVALID, "template file %s does not match schema: %v", f.path, err)
	}

	var file templateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, scrapely.Errorf(scrapely.EINVALID, "template file %s: %v", f.path, err)
	}
	for _, rec := range file.Templates {
		if err := xxhash.Verify(rec); err != nil {
			return nil, err
		}
	}
	return file.Templates, nil
}

// WriteTemplates replaces the file with records. The file is written to a
// temporary sibling first and renamed into place.
func (f *TemplateFile) WriteTemplates(ctx context.Context, records []*scrapely.TemplateRecord) error {
	out := make([]*scrapely.TemplateRecord, len(records))
	for i, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("template %d: %w", i, err)
		}
		stamped := *rec
		xxhash.Stamp(&stamped)
		out[i] = &stamped
	}

	data, err := json.MarshalIndent(templateFile{Templates: out}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
