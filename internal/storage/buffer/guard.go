package buffer

import (
	"sync"

	"github.com/nodalite/bufferpool/internal/common"
	"github.com/nodalite/bufferpool/internal/storage/page"
)

// BasicPageGuard pairs a fetched page with the responsibility of unpinning
// it exactly once. Go has no destructors, so callers must arrange a
// `defer guard.Drop()` themselves; Drop is idempotent via sync.Once so a
// stray extra call (or a deferred Drop alongside an earlier explicit one)
// is harmless rather than a double-unpin bug.
type BasicPageGuard struct {
	bp      *BufferPoolManager
	page    *page.Page
	dirty   bool
	dropped sync.Once
}

// PageID reports the id of the guarded page.
func (g *BasicPageGuard) PageID() common.PageID { return g.page.Header.PageID }

// Data returns the guarded page's payload. Writing through this slice
// reaches the pool's frame directly (see page.Page.Data); call
// MarkDirty() to ensure the write survives eviction.
func (g *BasicPageGuard) Data() []byte { return g.page.Data }

// MarkDirty flags the page as modified, so Drop's UnpinPage call persists
// the dirty bit.
func (g *BasicPageGuard) MarkDirty() { g.dirty = true }

// Drop unpins the underlying page. Safe to call multiple times or via
// defer after an earlier explicit call.
func (g *BasicPageGuard) Drop() {
	g.dropped.Do(func() {
		_ = g.bp.UnpinPage(g.page.Header.PageID, g.dirty)
	})
}

// ReadPageGuard additionally holds the frame's latch for reading,
// serializing against concurrent writers of the same frame.
type ReadPageGuard struct {
	BasicPageGuard
	latch *sync.RWMutex
}

// Drop releases the read latch, then unpins the page.
func (g *ReadPageGuard) Drop() {
	g.dropped.Do(func() {
		g.latch.RUnlock()
		_ = g.bp.UnpinPage(g.page.Header.PageID, g.dirty)
	})
}

// WritePageGuard holds the frame's latch exclusively, and always unpins
// with the dirty bit set, since a writer guard exists to mutate the page.
type WritePageGuard struct {
	BasicPageGuard
	latch *sync.RWMutex
}

// Drop releases the write latch, then unpins the page as dirty.
func (g *WritePageGuard) Drop() {
	g.dropped.Do(func() {
		g.latch.Unlock()
		_ = g.bp.UnpinPage(g.page.Header.PageID, true)
	})
}

func (bp *BufferPoolManager) frameLatch(id common.PageID) *sync.RWMutex {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	frameID, ok := bp.pageTable[id]
	if !ok {
		return nil
	}
	return &bp.frames[frameID].latch
}

// FetchPageBasic fetches id and wraps it in a BasicPageGuard, which
// guarantees the pin is released exactly once regardless of which code
// path drops it.
func (bp *BufferPoolManager) FetchPageBasic(id common.PageID) (*BasicPageGuard, error) {
	p, err := bp.FetchPage(id)
	if err != nil {
		return nil, err
	}
	return &BasicPageGuard{bp: bp, page: p}, nil
}

// FetchPageRead fetches id, pins it, and acquires its frame latch for
// reading. The caller must Drop the guard when done.
func (bp *BufferPoolManager) FetchPageRead(id common.PageID) (*ReadPageGuard, error) {
	p, err := bp.FetchPage(id)
	if err != nil {
		return nil, err
	}
	latch := bp.frameLatch(id)
	latch.RLock()
	return &ReadPageGuard{BasicPageGuard: BasicPageGuard{bp: bp, page: p}, latch: latch}, nil
}

// FetchPageWrite fetches id, pins it, and acquires its frame latch
// exclusively. The caller must Drop the guard when done.
func (bp *BufferPoolManager) FetchPageWrite(id common.PageID) (*WritePageGuard, error) {
	p, err := bp.FetchPage(id)
	if err != nil {
		return nil, err
	}
	latch := bp.frameLatch(id)
	latch.Lock()
	return &WritePageGuard{BasicPageGuard: BasicPageGuard{bp: bp, page: p}, latch: latch}, nil
}

// NewPageGuarded allocates a new page and wraps it in a write guard, since
// a freshly allocated page is always about to be initialized.
func (bp *BufferPoolManager) NewPageGuarded() (*WritePageGuard, error) {
	p, err := bp.NewPage()
	if err != nil {
		return nil, err
	}
	latch := bp.frameLatch(p.Header.PageID)
	latch.Lock()
	return &WritePageGuard{BasicPageGuard: BasicPageGuard{bp: bp, page: p, dirty: true}, latch: latch}, nil
}

