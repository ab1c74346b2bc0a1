package crawl_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/crawl"
	"github.com/stretchr/testify/assert"
)

func TestFrontier_Push_rejects_duplicate_URLs(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)

	assert.True(t, f.Push(scrapely.Link{URL: "https://example.com/item/1"}), "first push should succeed")
	assert.False(t, f.Push(scrapely.Link{URL: "https://example.com/item/1"}), "duplicate URL should be rejected")
	assert.False(t, f.Push(scrapely.Link{URL: "https://EXAMPLE.com/item/1#reviews"}), "canonical duplicate should be rejected")
}

func TestFrontier_Pop_returns_shallowest_first_in_push_order(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)

	f.Push(scrapely.Link{URL: "https://example.com/deep", Depth: 2})
	f.Push(scrapely.Link{URL: "https://example.com/a", Depth: 1})
	f.Push(scrapely.Link{URL: "https://example.com/start", Depth: 0})
	f.Push(scrapely.Link{URL: "https://example.com/b", Depth: 1})

	var got []string
	for {
		link, ok := f.Pop()
		if !ok {
			break
		}
		got = append(got, link.URL)
	}

	assert.Equal(t, []string{
		"https://example.com/start",
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/deep",
	}, got)
}

func TestFrontier_Pop_stores_canonical_URL(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)
	f.Push(scrapely.Link{URL: "https://example.com/item#top", Text: "Item"})

	link, ok := f.Pop()

	assert.True(t, ok)
	assert.Equal(t, "https://example.com/item", link.URL)
	assert.Equal(t, "Item", link.Text)
}

func TestFrontier_Len_tracks_queue_size(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)
	assert.Equal(t, 0, f.Len(), "new frontier should be empty")

	f.Push(scrapely.Link{URL: "https://example.com/a"})
	f.Push(scrapely.Link{URL: "https://example.com/b"})
	assert.Equal(t, 2, f.Len())

	f.Pop()
	assert.Equal(t, 1, f.Len())
}

func TestFrontier_Seen_tracks_all_pushed_URLs(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(1000, 0.01)
	assert.False(t, f.Seen("https://example.com/page"), "unseen URL should return false")

	f.Push(scrapely.Link{URL: "https://example.com/page"})
	f.Pop()

	assert.True(t, f.Seen("https://example.com/page"), "popped URL should still be seen")
}

func TestFrontier_concurrent_access(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(10000, 0.01)

	const numGoroutines = 10
	const numOpsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines * 2)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOpsPerGoroutine; j++ {
				f.Push(scrapely.Link{URL: fmt.Sprintf("https://example.com/%d/%d", id, j), Depth: j % 3})
			}
		}(i)
	}
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numOpsPerGoroutine; j++ {
				f.Pop()
				f.Len()
			}
		}()
	}

	wg.Wait()
	assert.GreaterOrEqual(t, f.Len(), 0)
}
