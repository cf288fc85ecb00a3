// Package page defines the fixed-size on-disk unit the buffer pool manages
// and the rest of the storage engine addresses by PageID.
package page

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/nodalite/bufferpool/internal/common"
)

// HeaderSize is the size in bytes of the on-disk header: PageID(8) +
// Checksum(4) + padding(4), kept 8-byte aligned ahead of Data.
const HeaderSize = 16

// Page is the in-memory representation of one on-disk page: a header
// plus a Data payload sized so Header+Data equals common.PageSize. Data is
// a slice, not an array, so the buffer pool can hand callers a view onto
// a frame's backing memory instead of a copy.
type Page struct {
	Header PageHeader
	Data   []byte
}

// PageHeader carries the page's identity and integrity check. It holds no
// pin/dirty state — that is frame-resident bookkeeping, owned by the
// buffer pool, not a property serialized to disk.
type PageHeader struct {
	PageID   common.PageID
	Checksum uint32
	_        uint32 // padding
}

// DataSize is the number of payload bytes available to callers per page.
const DataSize = common.PageSize - HeaderSize

// New returns a zeroed page stamped with the given id.
func New(id common.PageID) *Page {
	return &Page{Header: PageHeader{PageID: id}, Data: make([]byte, DataSize)}
}

// Serialize packs the page into a PageSize byte slice suitable for writing
// to disk, computing and embedding a CRC32 checksum over every byte after
// the PageID field (the zeroed checksum slot, the padding, and the data
// payload). The PageID bytes themselves are not covered by the checksum.
func (p *Page) Serialize() []byte {
	buf := make([]byte, common.PageSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.Header.PageID))
	copy(buf[HeaderSize:], p.Data)

	checksum := crc32.ChecksumIEEE(buf[8:])
	binary.LittleEndian.PutUint32(buf[8:12], checksum)

	p.Header.Checksum = checksum
	return buf
}

// Deserialize unpacks a PageSize byte slice into a Page, validating the
// embedded checksum. It returns an error if the buffer is short or the
// checksum does not match, signalling disk corruption or a torn write.
func Deserialize(data []byte) (*Page, error) {
	if len(data) != common.PageSize {
		return nil, fmt.Errorf("page: deserialize: expected %d bytes, got %d", common.PageSize, len(data))
	}

	pageID := common.PageID(binary.LittleEndian.Uint64(data[0:8]))
	checksum := binary.LittleEndian.Uint32(data[8:12])

	buf := make([]byte, common.PageSize)
	copy(buf, data)
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	want := crc32.ChecksumIEEE(buf[8:])
	if want != checksum {
		return nil, fmt.Errorf("page: deserialize: checksum mismatch for page %d: got %08x want %08x", pageID, checksum, want)
	}

	p := &Page{Header: PageHeader{PageID: pageID, Checksum: checksum}, Data: make([]byte, DataSize)}
	copy(p.Data, data[HeaderSize:])
	return p, nil
}
