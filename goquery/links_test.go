package goquery_test

import (
	"testing"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urls(links []scrapely.Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.URL
	}
	return out
}

func TestLinkSelector_ExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative links in document order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="/shop/kettle">Blue
	Kettle</a>
<a href="toaster">Toaster</a>
<a href="https://example.com/about">About</a>
</body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/shop/")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/shop/kettle",
			"https://example.com/shop/toaster",
			"https://example.com/about",
		}, urls(links))
		assert.Equal(t, "Blue Kettle", links[0].Text)
	})

	t.Run("filters external, non-HTTP, self and nofollow links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<a href="https://other.com/x">External</a>
<a href="https://sub.example.com/x">Subdomain</a>
<a href="mailto:shop@example.com">Mail</a>
<a href="javascript:void(0)">JS</a>
<a href="#top">Top</a>
<a href="/login" rel="nofollow">Login</a>
<a href="/shop/kettle">Kettle</a>
</body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/shop/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/shop/kettle"}, urls(links))
	})

	t.Run("deduplicates ignoring fragments", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/a#one">A</a><a href="/a#two">A again</a><a href="/a">A plain</a>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/")

		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "A", links[0].Text)
	})

	t.Run("custom selectors restrict and order links", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
<nav><a href="/about">About</a></nav>
<ul class="items"><li><a href="/item/1">1</a></li><li><a href="/item/2">2</a></li></ul>
<div class="pagination"><a href="/page/2">Next</a></div>
</body></html>`

		s := goquery.NewLinkSelector(goquery.WithSelectors(".pagination a", ".items a"))
		links, err := s.ExtractLinks(html, "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://example.com/page/2",
			"https://example.com/item/1",
			"https://example.com/item/2",
		}, urls(links))
	})

	t.Run("path scope keeps links below the base directory", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/shop/kettle">Kettle</a><a href="/blog/post">Post</a>`

		s := goquery.NewLinkSelector(goquery.WithPathScope())
		links, err := s.ExtractLinks(html, "https://example.com/shop/index.html")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/shop/kettle"}, urls(links))
	})

	t.Run("honors base element", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><base href="/catalog/"></head><body><a href="kettle">Kettle</a></body></html>`

		links, err := goquery.NewLinkSelector().ExtractLinks(html, "https://example.com/shop/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/catalog/kettle"}, urls(links))
	})

	t.Run("returns EINVALID for bad base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewLinkSelector().ExtractLinks("<a href='/x'>x</a>", "://bad")

		assert.Equal(t, scrapely.EINVALID, scrapely.ErrorCode(err))
	})
}
