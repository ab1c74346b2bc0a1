package crawl

import (
	"container/heap"
	"sync"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/bloom"
)

// Compile-time interface verification.
var _ scrapely.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory breadth-first URL queue with Bloom filter
// deduplication. Links are popped shallowest first and, within a depth, in
// the order they were pushed. It is safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	queue *linkHeap
	seq   int
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for deduplication.
func NewFrontier(n uint, fpRate float64) *Frontier {
	h := &linkHeap{}
	heap.Init(h)
	return &Frontier{
		seen:  bloom.NewFilter(n, fpRate),
		queue: h,
	}
}

// Push adds a link to the frontier.
// Returns false if the URL has already been seen. URLs are compared in
// canonical form, so links differing only by fragment are duplicates.
func (f *Frontier) Push(link scrapely.Link) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.seen.TestAndAdd(link.URL) {
		return false
	}
	link.URL = bloom.Canonical(link.URL)
	heap.Push(f.queue, queued{link: link, seq: f.seq})
	f.seq++
	return true
}

// Pop returns the next link.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (scrapely.Link, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queue.Len() == 0 {
		return scrapely.Link{}, false
	}
	q, _ := heap.Pop(f.queue).(queued)
	return q.link, true
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Seen returns true if the URL has been processed or queued.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen.Test(rawURL)
}

type queued struct {
	link scrapely.Link
	seq  int
}

// linkHeap orders links by depth, then by push order.
type linkHeap []queued

func (h linkHeap) Len() int { return len(h) }

func (h linkHeap) Less(i, j int) bool {
	if h[i].link.Depth != h[j].link.Depth {
		return h[i].link.Depth < h[j].link.Depth
	}
	return h[i].seq < h[j].seq
}

func (h linkHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *linkHeap) Push(x any) {
	q, _ := x.(queued)
	*h = append(*h, q)
}

func (h *linkHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
