package buffer

import (
	"testing"

	"github.com/nodalite/bufferpool/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUKReplacerEvictsInfiniteDistanceFirst(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	require.NoError(t, r.RecordAccess(1, common.AccessGet))
	require.NoError(t, r.RecordAccess(2, common.AccessGet))
	require.NoError(t, r.RecordAccess(2, common.AccessGet)) // frame 2 now has 2 accesses, finite distance
	require.NoError(t, r.SetEvictable(1, true))
	require.NoError(t, r.SetEvictable(2, true))

	// frame 1 has only one access (infinite backward k-distance) and must
	// be evicted before frame 2, which has a finite distance.
	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, common.FrameID(1), victim)
}

func TestLRUKReplacerTiesBreakByOldestAccess(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	require.NoError(t, r.RecordAccess(1, common.AccessGet)) // oldest
	require.NoError(t, r.RecordAccess(2, common.AccessGet))
	require.NoError(t, r.SetEvictable(1, true))
	require.NoError(t, r.SetEvictable(2, true))

	// Both frames have a single access, so both have infinite backward
	// k-distance; frame 1's single access is older, so it is evicted.
	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, common.FrameID(1), victim)
}

func TestLRUKReplacerDegeneratesToClassicLRUWhenKIsOne(t *testing.T) {
	r := NewLRUKReplacer(4, 1)

	require.NoError(t, r.RecordAccess(1, common.AccessGet))
	require.NoError(t, r.RecordAccess(2, common.AccessGet))
	require.NoError(t, r.RecordAccess(3, common.AccessGet))
	require.NoError(t, r.SetEvictable(1, true))
	require.NoError(t, r.SetEvictable(2, true))
	require.NoError(t, r.SetEvictable(3, true))

	require.NoError(t, r.RecordAccess(1, common.AccessGet)) // touch 1 again, now least-recently-used is 2

	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, common.FrameID(2), victim)
}

func TestLRUKReplacerSkipsPinnedFrames(t *testing.T) {
	r := NewLRUKReplacer(4, 2)

	require.NoError(t, r.RecordAccess(1, common.AccessGet))
	require.NoError(t, r.RecordAccess(2, common.AccessGet))
	require.NoError(t, r.SetEvictable(2, true)) // only 2 is evictable

	victim, ok := r.Evict()
	require.True(t, ok)
	assert.Equal(t, common.FrameID(2), victim)
}

func TestLRUKReplacerEvictFailsWhenNothingEvictable(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	require.NoError(t, r.RecordAccess(1, common.AccessGet))

	_, ok := r.Evict()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Size())
}

func TestLRUKReplacerSetEvictableUntrackedFrame(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	err := r.SetEvictable(99, true)
	assert.ErrorIs(t, err, common.ErrFrameNotTracked)
}

func TestLRUKReplacerRemoveRequiresEvictable(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	require.NoError(t, r.RecordAccess(1, common.AccessGet))

	err := r.Remove(1)
	assert.ErrorIs(t, err, common.ErrFrameNotEvictable)

	require.NoError(t, r.SetEvictable(1, true))
	assert.NoError(t, r.Remove(1))
	assert.Equal(t, 0, r.Size())
}

func TestLRUKReplacerRemoveUntrackedFrameIsNoop(t *testing.T) {
	r := NewLRUKReplacer(2, 2)
	assert.NoError(t, r.Remove(123))
}

func TestLRUKReplacerRecordAccessRespectsCapacity(t *testing.T) {
	r := NewLRUKReplacer(1, 2)
	require.NoError(t, r.RecordAccess(1, common.AccessGet))

	err := r.RecordAccess(2, common.AccessGet)
	assert.ErrorIs(t, err, common.ErrReplacerFull)
}

func TestLRUKReplacerSizeTracksEvictableCount(t *testing.T) {
	r := NewLRUKReplacer(4, 2)
	require.NoError(t, r.RecordAccess(1, common.AccessGet))
	require.NoError(t, r.RecordAccess(2, common.AccessGet))
	assert.Equal(t, 0, r.Size())

	require.NoError(t, r.SetEvictable(1, true))
	assert.Equal(t, 1, r.Size())

	require.NoError(t, r.SetEvictable(1, false))
	assert.Equal(t, 0, r.Size())
}
