// Package disk is the buffer pool's external collaborator: it turns page
// ids into reads and writes against a single flat file on disk. The buffer
// pool never touches the filesystem directly.
package disk

import (
	"github.com/nodalite/bufferpool/internal/common"
	"github.com/nodalite/bufferpool/internal/storage/page"
)

// Manager is implemented by anything that can durably store and retrieve
// fixed-size pages by id. The buffer pool depends on this interface, not
// on FileManager directly, so tests can substitute an in-memory fake.
type Manager interface {
	ReadPage(id common.PageID) (*page.Page, error)
	WritePage(p *page.Page) error
	Close() error
}
