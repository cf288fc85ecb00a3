package disk

import (
	"os"
	"testing"

	"github.com/nodalite/bufferpool/internal/common"
	"github.com/nodalite/bufferpool/internal/storage/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileManagerWriteReadRoundTrip(t *testing.T) {
	path, cleanup := common.CreateTempFile(t)
	defer cleanup()

	fm, err := NewFileManager(path)
	require.NoError(t, err)
	defer fm.Close()

	p := page.New(common.PageID(5))
	copy(p.Data[:], []byte("roundtrip"))

	require.NoError(t, fm.WritePage(p))

	got, err := fm.ReadPage(common.PageID(5))
	require.NoError(t, err)
	assert.Equal(t, p.Data, got.Data)
}

func TestFileManagerReadPastEndReturnsZeroedPage(t *testing.T) {
	path, cleanup := common.CreateTempFile(t)
	defer cleanup()

	fm, err := NewFileManager(path)
	require.NoError(t, err)
	defer fm.Close()

	got, err := fm.ReadPage(common.PageID(42))
	require.NoError(t, err)
	assert.Equal(t, common.PageID(42), got.Header.PageID)
	assert.Equal(t, make([]byte, page.DataSize), got.Data)
}

func TestFileManagerGrowsOnWrite(t *testing.T) {
	path, cleanup := common.CreateTempFile(t)
	defer cleanup()

	fm, err := NewFileManager(path)
	require.NoError(t, err)
	defer fm.Close()

	p := page.New(common.PageID(10))
	require.NoError(t, fm.WritePage(p))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, 11*common.PageSize, info.Size())
}

func TestFileManagerClosedOperationsFail(t *testing.T) {
	path, cleanup := common.CreateTempFile(t)
	defer cleanup()

	fm, err := NewFileManager(path)
	require.NoError(t, err)
	require.NoError(t, fm.Close())
	assert.NoError(t, fm.Close()) // idempotent

	_, err = fm.ReadPage(common.PageID(0))
	assert.ErrorIs(t, err, common.ErrClosed)

	err = fm.WritePage(page.New(common.PageID(0)))
	assert.ErrorIs(t, err, common.ErrClosed)
}
