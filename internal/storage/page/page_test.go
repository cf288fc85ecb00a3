package page

import (
	"testing"

	"github.com/nodalite/bufferpool/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p := New(common.PageID(7))
	copy(p.Data[:], []byte("hello buffer pool"))

	buf := p.Serialize()
	require.Len(t, buf, common.PageSize)

	got, err := Deserialize(buf)
	require.NoError(t, err)
	assert.Equal(t, common.PageID(7), got.Header.PageID)
	assert.Equal(t, p.Data, got.Data)
}

func TestDeserializeDetectsCorruption(t *testing.T) {
	p := New(common.PageID(3))
	copy(p.Data[:], []byte("intact"))
	buf := p.Serialize()

	buf[HeaderSize] ^= 0xFF // flip a data byte after checksum computed

	_, err := Deserialize(buf)
	assert.Error(t, err)
}

func TestDeserializeRejectsShortBuffer(t *testing.T) {
	_, err := Deserialize(make([]byte, 10))
	assert.Error(t, err)
}
