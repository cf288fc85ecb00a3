package buffer

import (
	"sync"

	"github.com/nodalite/bufferpool/internal/common"
	"github.com/nodalite/bufferpool/internal/storage/page"
)

// frame is one slot of the buffer pool's frame array. It holds whichever
// page is currently resident there, plus the bookkeeping the pool needs to
// decide when the slot can be reused: pin count and dirty flag are
// frame-resident state, never serialized with the page itself.
//
// data is the actual backing memory a fetched *page.Page.Data slice
// points into, so writes through a guard's page reach the frame directly
// without a copy round trip.
type frame struct {
	latch sync.RWMutex

	pageID   common.PageID
	data     []byte
	pinCount int
	isDirty  bool
}

func newFrame() *frame {
	return &frame{pageID: common.InvalidPageID, data: make([]byte, page.DataSize)}
}

func (f *frame) reset(pageID common.PageID) {
	f.pageID = pageID
	f.pinCount = 0
	f.isDirty = false
	for i := range f.data {
		f.data[i] = 0
	}
}
