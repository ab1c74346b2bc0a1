package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/scrapely"
)

// Ensure SitemapService implements scrapely.SitemapService.
var _ scrapely.SitemapService = (*SitemapService)(nil)

// SitemapService discovers page URLs from a site's sitemaps.
type SitemapService struct {
	client *http.Client

	// MaxURLs stops discovery once this many URLs were collected.
	// Zero means no limit.
	MaxURLs int
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the deduplicated page URLs listed in the site's
// sitemaps, in sitemap order. Returns an empty slice (not nil) when the site
// publishes no sitemap.
//
// When baseURL has a non-root path (e.g., https://example.com/shop/),
// only URLs below that path are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *scrapely.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	prefix := pathPrefix(base.Path)

	root := *base
	root.Path = ""
	root.RawQuery = ""
	queue, err := s.findSitemapURLs(ctx, &root)
	if err != nil {
		return nil, err
	}

	urls := []string{}
	seenSitemaps := make(map[string]bool)
	seenURLs := make(map[string]bool)

	for len(queue) > 0 {
		sitemapURL := queue[0]
		queue = queue[1:]
		if seenSitemaps[sitemapURL] {
			continue
		}
		seenSitemaps[sitemapURL] = true

		children, locs, err := s.readSitemap(ctx, sitemapURL)
		if err != nil {
			return nil, err
		}
		queue = append(queue, children...)

		for _, u := range locs {
			if seenURLs[u] || !hasPathPrefix(u, prefix) || !filter.Match(u) {
				continue
			}
			seenURLs[u] = true
			urls = append(urls, u)
			if s.MaxURLs > 0 && len(urls) >= s.MaxURLs {
				return urls, nil
			}
		}
	}

	return urls, nil
}

// pathPrefix normalizes a base path to end with a slash. The root path
// yields "", which matches everything.
func pathPrefix(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// hasPathPrefix reports whether the URL's path lies below prefix. A prefix of
// /shop/ matches /shop/ and /shop/item but not /shopping.
func hasPathPrefix(rawURL, prefix string) bool {
	if prefix == "" {
		return true
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(parsed.Path, prefix) || parsed.Path+"/" == prefix
}

// findSitemapURLs reads Sitemap: directives from robots.txt and falls back to
// /sitemap.xml.
func (s *SitemapService) findSitemapURLs(ctx context.Context, root *url.URL) ([]string, error) {
	robotsURL := root.ResolveReference(&url.URL{Path: "/robots.txt"})
	sitemaps, err := s.parseRobots(ctx, robotsURL.String())
	if err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}

	sitemapURL := root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()
	exists, err := s.urlExists(ctx, sitemapURL)
	if err != nil {
		// Propagate context errors, treat other errors as "not found"
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	if exists {
		return []string{sitemapURL}, nil
	}
	return nil, nil
}

func (s *SitemapService) parseRobots(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.fetchURL(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "sitemap") {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			sitemaps = append(sitemaps, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

// readSitemap fetches a sitemap and returns the nested sitemaps of an index
// and the page locations of a urlset. Gzipped sitemaps are decompressed.
func (s *SitemapService) readSitemap(ctx context.Context, sitemapURL string) (children, locs []string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	body, err := s.fetchURL(ctx, sitemapURL)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(strings.ToLower(sitemapURL), ".gz") {
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, fmt.Errorf("decompressing sitemap %s: %w", sitemapURL, err)
		}
		defer zr.Close()
		r = zr
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil, fmt.Errorf("empty sitemap XML")
	}

	switch root.Tag {
	case "sitemapindex":
		return locations(root, "sitemap"), nil, nil
	default:
		return nil, locations(root, "url"), nil
	}
}

// locations returns the <loc> text of every child element named tag.
func locations(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if u := strings.TrimSpace(loc.Text()); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (s *SitemapService) fetchURL(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}

	return resp.Body, nil
}

func (s *SitemapService) urlExists(ctx context.Context, targetURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
