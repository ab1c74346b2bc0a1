// Package fs provides file-based storage for template archives and crawl
// results.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/scrapely"
)

// URLToPath converts a page URL to a relative JSON file path.
// Example: https://example.com/shop/item/42 → shop/item/42.json
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	path := u.Path

	// Handle root or trailing slash → index.json
	if path == "" || path == "/" {
		return "index.json", nil
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return "", scrapely.Errorf(scrapely.EINVALID, "path traversal in URL %q", rawURL)
		}
	}

	path = strings.TrimPrefix(path, "/")

	if strings.HasSuffix(path, "/") {
		return path + "index.json", nil
	}

	return path + ".json", nil
}

// Ensure ResultStore implements scrapely.ResultStore at compile time.
var _ scrapely.ResultStore = (*ResultStore)(nil)

// ResultStore implements scrapely.ResultStore with atomic update semantics.
// Results are saved to a temporary directory, then moved atomically on Commit.
type ResultStore struct {
	baseDir string
	name    string
}

// NewResultStore creates a new ResultStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewResultStore(baseDir, name string) *ResultStore {
	return &ResultStore{
		baseDir: baseDir,
		name:    name,
	}
}

func (s *ResultStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *ResultStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// resultFile is the on-disk form of a page's extraction result.
type resultFile struct {
	URL           string             `json:"url"`
	TemplateIndex int                `json:"templateIndex"`
	Score         float64            `json:"score"`
	Records       []*scrapely.Record `json:"records"`
}

// Save writes the records extracted from url as a JSON file.
func (s *ResultStore) Save(ctx context.Context, url string, result *scrapely.Result) error {
	relPath, err := URLToPath(url)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(resultFile{
		URL:           url,
		TemplateIndex: result.TemplateIndex,
		Score:         result.Score,
		Records:       result.Records,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", url, err)
	}
	return os.WriteFile(fullPath, data, 0644)
}

// Commit replaces the output directory with everything saved so far.
func (s *ResultStore) Commit() error {
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}
	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards everything saved so far.
func (s *ResultStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}
