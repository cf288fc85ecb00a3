package disk

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/nodalite/bufferpool/internal/common"
	"github.com/nodalite/bufferpool/internal/storage/page"
)

// FileManager stores pages in a single flat file, page id i living at byte
// offset i*PageSize. It grows the file on demand rather than mapping it,
// so it has no fixed address-space ceiling the way a mmap-backed manager
// would.
type FileManager struct {
	mu   sync.Mutex
	file *os.File
	size int64
}

// NewFileManager opens (creating if necessary) the file at path.
func NewFileManager(path string) (*FileManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("disk manager: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("disk manager: stat %s: %w", path, err)
	}

	return &FileManager{file: f, size: info.Size()}, nil
}

// ReadPage reads and deserializes the page at id. A page past the current
// end of the file has never been written; ReadPage hands back a fresh
// zero-filled page for it rather than an error, the same "possibly zeroed"
// contract a freshly allocated page already carries.
func (fm *FileManager) ReadPage(id common.PageID) (*page.Page, error) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.file == nil {
		return nil, common.ErrClosed
	}

	offset := int64(id) * common.PageSize
	if offset+common.PageSize > fm.size {
		return page.New(id), nil
	}

	buf := make([]byte, common.PageSize)
	if _, err := fm.file.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("disk manager: read page %d: %w", id, common.ErrShortRead)
	}

	p, err := page.Deserialize(buf)
	if err != nil {
		return nil, fmt.Errorf("disk manager: read page %d: %w", id, err)
	}
	return p, nil
}

// WritePage serializes and writes p at the offset its PageID implies,
// growing the backing file first if the page lies past the current end.
func (fm *FileManager) WritePage(p *page.Page) error {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	if fm.file == nil {
		return common.ErrClosed
	}

	offset := int64(p.Header.PageID) * common.PageSize
	needed := offset + common.PageSize
	if needed > fm.size {
		if err := fm.file.Truncate(needed); err != nil {
			return fmt.Errorf("disk manager: grow file for page %d: %w", p.Header.PageID, err)
		}
		fm.size = needed
	}

	if _, err := fm.file.WriteAt(p.Serialize(), offset); err != nil {
		return fmt.Errorf("disk manager: write page %d: %w", p.Header.PageID, err)
	}
	return nil
}

// Sync flushes the file's in-kernel buffers to stable storage.
func (fm *FileManager) Sync() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if fm.file == nil {
		return common.ErrClosed
	}
	return fm.file.Sync()
}

// Close flushes and closes the backing file. It is idempotent.
func (fm *FileManager) Close() error {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if fm.file == nil {
		return nil
	}

	var err error
	if e := fm.file.Sync(); e != nil {
		err = errors.Join(err, fmt.Errorf("disk manager: sync: %w", e))
	}
	if e := fm.file.Close(); e != nil {
		err = errors.Join(err, fmt.Errorf("disk manager: close: %w", e))
	}
	fm.file = nil
	return err
}
