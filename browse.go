package repertoire

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/repertoire/internal/debounce"
)

// BrowseHandler receives each page of results. err is non-nil only when both
// the index and the database failed; index-only failures arrive as a page
// with Source "relational" and a FallbackReason.
type BrowseHandler func(page *SearchPage, err error)

// pageSearcher is what a Browser needs from the writer service.
type pageSearcher interface {
	Search(ctx context.Context, filter string, page, pageSize int) (*SearchPage, error)
}

// Browser is an interactive browse session: it debounces filter input,
// resets to the first page when the filter changes, and drops responses
// that have been superseded by a newer request.
type Browser struct {
	searcher pageSearcher
	handler  BrowseHandler
	deb      *debounce.Debouncer
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// issued stamps every search; delivered tracks the newest stamp the
	// handler has seen. A response older than delivered is dropped.
	issued    atomic.Uint64
	delivered atomic.Uint64

	mu       sync.Mutex
	filter   string
	page     int
	pageSize int
}

func newBrowser(searcher pageSearcher, window time.Duration, handler BrowseHandler) *Browser {
	ctx, cancel := context.WithCancel(context.Background())
	return &Browser{
		searcher: searcher,
		handler:  handler,
		deb:      debounce.New(window),
		ctx:      ctx,
		cancel:   cancel,
		page:     1,
	}
}

// SetFilter updates the filter text. A changed filter jumps back to the
// first page. The search itself waits for the debounce window, so rapid
// keystrokes cost one request.
func (b *Browser) SetFilter(filter string) {
	b.mu.Lock()
	if filter != b.filter {
		b.filter = filter
		b.page = 1
	}
	b.mu.Unlock()

	b.deb.Trigger(b.refresh)
}

// SetPage jumps to a page and searches immediately.
func (b *Browser) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	b.mu.Lock()
	b.page = page
	b.mu.Unlock()

	b.refresh()
}

// SetPageSize changes the page size, jumps back to the first page, and
// searches immediately.
func (b *Browser) SetPageSize(size int) {
	b.mu.Lock()
	b.pageSize = size
	b.page = 1
	b.mu.Unlock()

	b.refresh()
}

// Refresh re-runs the current search immediately.
func (b *Browser) Refresh() {
	b.refresh()
}

// Close stops the debouncer, cancels in-flight searches, and waits for
// them to drain. The handler is not called after Close returns.
func (b *Browser) Close() {
	b.deb.Stop()
	b.cancel()
	b.wg.Wait()
}

func (b *Browser) refresh() {
	seq := b.issued.Add(1)

	b.mu.Lock()
	filter, page, size := b.filter, b.page, b.pageSize
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		res, err := b.searcher.Search(b.ctx, filter, page, size)
		if b.ctx.Err() != nil {
			return
		}

		// Deliver only if nothing newer has been delivered yet. Responses
		// can arrive out of order; the screen must show the latest request.
		for {
			last := b.delivered.Load()
			if seq <= last {
				return
			}
			if b.delivered.CompareAndSwap(last, seq) {
				break
			}
		}
		b.handler(res, err)
	}()
}
